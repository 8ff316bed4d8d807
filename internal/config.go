package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Tracker TrackerConfig     `yaml:"tracker"`
	Ledger  LedgerConfig      `yaml:"ledger"`
	Staging StagingConfig     `yaml:"staging"`
	Mail    MailConfig        `yaml:"mail"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Tracker.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.Staging.Validate(); err != nil {
		return err
	}
	if err := c.Mail.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// TrackerConfig holds the remote tracker connection settings.
//
// KnownProjects short-circuits project filtering; any other project is
// kept only when its issue type names contain TypeMarker. HomeProject is
// the project the startup warmup primes.
type TrackerConfig struct {
	BaseURL       string   `yaml:"base_url"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	HomeProject   string   `yaml:"home_project"`
	KnownProjects []string `yaml:"known_projects"`
	TypeMarker    string   `yaml:"type_marker"`
}

// Validate validates the tracker configuration.
func (c *TrackerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.HomeProject, validation.Required),
	)
}

// LedgerConfig holds the SQLite ledger location.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StagingConfig holds the staging directory and the shared-drive root
// used for oversized batches.
type StagingConfig struct {
	Path      string `yaml:"path"`
	SharedDir string `yaml:"shared_dir"`
}

// Validate validates the staging configuration.
func (c *StagingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.SharedDir, validation.Required),
	)
}

// MailConfig holds the SMTP relay and recipients for notifications.
// Username and Password may be empty for an open internal relay.
type MailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// Validate validates the mail configuration.
func (c *MailConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.From, validation.Required),
		validation.Field(&c.To, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the bridge's own API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Tracker: TrackerConfig{
			HomeProject: "MOCIS",
			KnownProjects: []string{
				"COIH", "DOCARB", "DOCLENS", "DOCMSHP", "DOCOIM", "OPII",
				"DOCTMS", "IRISBATCH", "JSTUI", "MOCIS", "MODOCFEES",
				"PANDA", "TABEBATCH",
			},
			TypeMarker: "DOC ",
		},
		Ledger: LedgerConfig{
			Path: "./jiratrack.db",
		},
		Staging: StagingConfig{
			Path:      "./downloads",
			SharedDir: "./shared",
		},
		Mail: MailConfig{
			Port: 25,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
