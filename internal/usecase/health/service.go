package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the backend answers but some indexes are missing.
	Degraded Status = "degraded"
	// Unhealthy indicates the backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates an index that does not exist yet.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const databaseCheck = "database"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	indexes IndexChecker
	names   []string
}

// New creates a Service checking the backend and the given physical indexes.
// indexes can be nil.
func New(db DBPinger, indexes IndexChecker, names []string) *Service {
	return &Service{db: db, indexes: indexes, names: names}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 1+len(s.names))

	if err := s.db.Ping(ctx); err != nil {
		checks[databaseCheck] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks[databaseCheck] = CheckOK

	status := Healthy
	if s.indexes != nil {
		for _, name := range s.names {
			ok, err := s.indexes.IndexExists(ctx, name)
			switch {
			case err != nil:
				checks["index:"+name] = CheckError
			case !ok:
				checks["index:"+name] = CheckMissing
			default:
				checks["index:"+name] = CheckOK
				continue
			}
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
