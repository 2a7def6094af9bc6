package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverRedis         = "redis"
	DriverElasticsearch = "elasticsearch"
)

// Config holds the facetdex configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Search      SearchConfig      `yaml:"search"`
	KnownFields KnownFieldsConfig `yaml:"known_fields"`
	Derived     DerivedConfig     `yaml:"derived"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"` // default: determined by env
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds search backend connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver" validate:"oneof=redis elasticsearch"`
	Addrs            []string `yaml:"addrs" validate:"required,min=1,dive,required"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db" validate:"gte=0"` // redis only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds indexing and search behaviour.
type SearchConfig struct {
	// Environment is appended to every alias to form the physical index name.
	Environment string `yaml:"environment"`
	// Primary enables index writes on this node.
	Primary           bool     `yaml:"primary"`
	Indexes           []string `yaml:"indexes" validate:"required,min=1,dive,required"`
	ExpandFacetValues bool     `yaml:"expand_facet_values"`
	MaxFacetValues    int      `yaml:"max_facet_values"`
	DeleteBatchSize   int      `yaml:"delete_batch_size"`
	// PresetIndex is the alias searched by the articles and books endpoints.
	PresetIndex string `yaml:"preset_index"`
}

// KnownFieldsConfig lists the logical fields that get typed projections.
type KnownFieldsConfig struct {
	IncludeName *bool               `yaml:"include_name"`
	Global      []string            `yaml:"global" validate:"dive,required"`
	ByIndex     map[string][]string `yaml:"by_index" validate:"dive,dive,required"`
}

// DerivedConfig configures fields computed at indexing time.
type DerivedConfig struct {
	// Years maps a date-time source field to the integer field receiving its years.
	Years map[string]string `yaml:"years" validate:"dive,keys,required,endkeys,required"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files, skipping missing ones.
// Variables already present in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if !fileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.MaxFacetValues <= 0 {
		c.Search.MaxFacetValues = 10
	}
	if c.Search.DeleteBatchSize <= 0 {
		c.Search.DeleteBatchSize = 500
	}
	if c.Search.PresetIndex == "" && len(c.Search.Indexes) > 0 {
		c.Search.PresetIndex = c.Search.Indexes[0]
	}
	if c.KnownFields.IncludeName == nil {
		include := true
		c.KnownFields.IncludeName = &include
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := checkStruct(c); err != nil {
		return err
	}

	if err := checkFieldNames("known_fields.global", c.KnownFields.Global); err != nil {
		return err
	}
	for alias, fields := range c.KnownFields.ByIndex {
		if !c.hasIndex(alias) {
			return fmt.Errorf("known_fields.by_index.%s: index is not listed in search.indexes", alias)
		}
		if err := checkFieldNames("known_fields.by_index."+alias, fields); err != nil {
			return err
		}
	}
	if c.Search.PresetIndex != "" && !c.hasIndex(c.Search.PresetIndex) {
		return fmt.Errorf("search.preset_index %q is not listed in search.indexes", c.Search.PresetIndex)
	}
	for source, target := range c.Derived.Years {
		if source == target {
			return fmt.Errorf("derived.years.%s: target must differ from the source field", source)
		}
	}
	return nil
}

func checkFieldNames(path string, fields []string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, " \t:") {
			return fmt.Errorf("%s: invalid field name %q", path, f)
		}
	}
	return nil
}

func (c *Config) hasIndex(alias string) bool {
	for _, a := range c.Search.Indexes {
		if strings.EqualFold(a, alias) {
			return true
		}
	}
	return false
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkStruct(c *Config) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required", "min":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %q, got %q", field, e.Param(), fmt.Sprint(e.Value())))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s is out of range, got %v", field, e.Value()))
		default:
			msgs = append(msgs, e.Error())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
