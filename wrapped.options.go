package wrapped

import (
	"go.uber.org/zap"
)

// Policy selects how a scan treats a wrapper that is still open at end of input.
type Policy string

// String returns the policy name
func (p Policy) String() string {
	return string(p)
}

// Valid reports whether p is a known policy
func (p Policy) Valid() bool {
	return p == PolicyLenient || p == PolicyStrict
}

// Option is a functional option for configuring scanners, formatters and engines.
type Option func(*config)

// config holds the shared construction settings.
type config struct {
	catalog Catalog
	policy  Policy
	logger  *zap.Logger
	metrics MetricsRecorder
	storage TemplateStorage
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		catalog: DefaultCatalog(),
		policy:  PolicyLenient,
		logger:  nil,
		metrics: NoopMetrics{},
		storage: nil,
	}
}

// newConfig applies opts over the defaults and validates the result
func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.metrics == nil {
		cfg.metrics = NoopMetrics{}
	}
	if !cfg.policy.Valid() {
		return nil, NewInvalidPolicyError(cfg.policy)
	}
	if err := cfg.catalog.Validate(); err != nil {
		return nil, err
	}
	cfg.catalog = cfg.catalog.clone()
	return cfg, nil
}

// WithCatalog sets the ordered delimiter catalog.
// Default: DefaultCatalog()
func WithCatalog(catalog Catalog) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// WithPolicy sets the unterminated-wrapper policy.
// Default: PolicyLenient
func WithPolicy(policy Policy) Option {
	return func(c *config) {
		c.policy = policy
	}
}

// WithStrict is shorthand for WithPolicy(PolicyStrict).
func WithStrict() Option {
	return WithPolicy(PolicyStrict)
}

// WithLogger sets the logger.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: NoopMetrics{}
func WithMetrics(metrics MetricsRecorder) Option {
	return func(c *config) {
		c.metrics = metrics
	}
}

// WithStorage sets the template storage used by an Engine.
// Default: nil (storage operations fail)
func WithStorage(storage TemplateStorage) Option {
	return func(c *config) {
		c.storage = storage
	}
}
