package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "lineage-verifier/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port  string
	Env   string
	Debug bool

	// Neo4j
	Neo4jEnabled  bool
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Verification
	RaiseException          bool // RAISE_EXCEPTION; escalates soft violations when true
	KnownProblemCases       []string
	SimilarPersonExceptions []string
	EnableStages            []string
	DisableStages           []string
	ExceptionsFile          string
}

// Exceptions is the on-disk form of the verification allow-lists
type Exceptions struct {
	KnownProblemCases       []string `yaml:"known_problem_cases"`
	SimilarPersonExceptions []string `yaml:"similar_person_exceptions"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		Debug:             getEnvBool("DEBUG", false),
		Neo4jEnabled:      getEnvBool("NEO4J_ENABLED", false),
		Neo4jURI:          getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:         getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:     getEnv("NEO4J_PASSWORD", "password"),
		RaiseException:    lookupEnv("RAISE_EXCEPTION", "true") == "true",
		KnownProblemCases: getEnvList("KNOWN_PROBLEM_CASES"),
		EnableStages:      getEnvList("VERIFY_STAGES_ENABLE"),
		DisableStages:     getEnvList("VERIFY_STAGES_DISABLE"),
		ExceptionsFile:    getEnv("EXCEPTIONS_FILE", ""),
	}

	if cfg.ExceptionsFile != "" {
		exc, err := LoadExceptions(cfg.ExceptionsFile)
		if err != nil {
			return nil, err
		}
		cfg.MergeExceptions(exc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadExceptions reads a YAML allow-list file
func LoadExceptions(path string) (*Exceptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exceptions file: %w", err)
	}
	return ParseExceptions(data)
}

// ParseExceptions decodes YAML allow-lists. Blank entries are dropped since an
// empty substring would exempt every person.
func ParseExceptions(data []byte) (*Exceptions, error) {
	var exc Exceptions
	if err := yaml.Unmarshal(data, &exc); err != nil {
		return nil, apperrors.NewConfigValidationFailed("EXCEPTIONS_FILE", err.Error())
	}
	exc.KnownProblemCases = compact(exc.KnownProblemCases)
	exc.SimilarPersonExceptions = compact(exc.SimilarPersonExceptions)
	return &exc, nil
}

// MergeExceptions appends file-based allow-lists to the environment ones
func (c *Config) MergeExceptions(exc *Exceptions) {
	if exc == nil {
		return
	}
	c.KnownProblemCases = append(c.KnownProblemCases, exc.KnownProblemCases...)
	c.SimilarPersonExceptions = append(c.SimilarPersonExceptions, exc.SimilarPersonExceptions...)
}

// Validate checks that configuration values are consistent
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		return apperrors.NewConfigValidationFailed("ENV", fmt.Sprintf("unknown environment %q", c.Env))
	}
	for _, name := range c.EnableStages {
		for _, other := range c.DisableStages {
			if name == other {
				return apperrors.NewConfigValidationFailed("VERIFY_STAGES_ENABLE", fmt.Sprintf("stage %q is both enabled and disabled", name))
			}
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv differs from getEnv in that a variable set to "" is kept
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "":
		return defaultValue
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// getEnvList splits a comma separated variable, skipping blanks
func getEnvList(key string) []string {
	return compact(strings.Split(os.Getenv(key), ","))
}

func compact(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
