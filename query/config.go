package query

import "go.uber.org/zap"

// ValidationMode records how strictly comparisons between mismatched types
// are to be handled. The value is stored in Config only: the query pipeline
// does not read it, and the evaluator always treats a type mismatch in a
// comparison as Unknown (three-valued logic, row rejected).
type ValidationMode int

const (
	// ValidationRelaxed is the default mode.
	ValidationRelaxed ValidationMode = iota
	// ValidationStrict is the strict mode; no TypeError is raised for a
	// comparison type mismatch in either mode.
	ValidationStrict
)

// Config holds database-wide configuration, generalized from the teacher's
// DatabaseConfig/DatabaseOption functional-options pattern.
type Config struct {
	PageCacheSize  int
	MaxConcurrency int
	StrictTypes    bool
	ValidationMode ValidationMode
	Logger         *zap.Logger
	Parser         Parser
	DDLParser      DDLParser
	PlanCacheSize  int
}

// Option is a functional option over Config.
type Option func(*Config)

// WithPageCacheSize sets the file-backed page source's LRU capacity.
func WithPageCacheSize(size int) Option {
	return func(c *Config) { c.PageCacheSize = size }
}

// WithMaxConcurrency sets the bounded-concurrency cap used for parallel
// page/cell reads (errgroup-backed).
func WithMaxConcurrency(max int) Option {
	return func(c *Config) { c.MaxConcurrency = max }
}

// WithStrictTypes sets StrictTypes and the matching ValidationMode. Neither
// field is consulted during evaluation, so comparison type mismatches
// evaluate to Unknown whatever this option is set to.
func WithStrictTypes(strict bool) Option {
	return func(c *Config) {
		c.StrictTypes = strict
		if strict {
			c.ValidationMode = ValidationStrict
		} else {
			c.ValidationMode = ValidationRelaxed
		}
	}
}

// WithLogger injects a *zap.Logger; defaults to zap.NewNop() so library
// consumers pay nothing by default.
func WithLogger(log *zap.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

// WithParser sets the parser collaborator. There is no default: Open and
// OpenBytes fail without one (sqlparse.DefaultOptions supplies it).
func WithParser(p Parser) Option {
	return func(c *Config) { c.Parser = p }
}

// WithDDLParser sets the DDL parser collaborator used by the schema
// catalog. There is no default: Open and OpenBytes fail without one
// (sqlparse.DefaultOptions supplies it).
func WithDDLParser(p DDLParser) Option {
	return func(c *Config) { c.DDLParser = p }
}

// WithPlanCacheCapacity overrides the CACHED-tier plan dictionary's
// maximum entry count (default 1024, per spec §4.9).
func WithPlanCacheCapacity(n int) Option {
	return func(c *Config) { c.PlanCacheSize = n }
}

// DefaultConfig mirrors the teacher's DefaultDatabaseConfig().
func DefaultConfig() *Config {
	return &Config{
		PageCacheSize:  128,
		MaxConcurrency: 8,
		StrictTypes:    false,
		ValidationMode: ValidationRelaxed,
		Logger:         zap.NewNop(),
		PlanCacheSize:  1024,
	}
}

func (c *Config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}
