package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	skipWarmup bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithoutWarmup disables the startup cache priming. Mainly for tests and
// one-off runs against a slow tracker.
func WithoutWarmup() Option {
	return func(a *application) {
		a.skipWarmup = true
	}
}
