package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// NewRouter wires the middleware stack in front of the server routes.
func NewRouter(s *Server, apiKeys []string, log *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(Recoverer(log))
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	s.Routes(r)
	return r
}
