package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// SyncIntervalEnv overrides [SyncConfig.IntervalMinutes] when set to a valid integer.
const SyncIntervalEnv = "SYNC_INTERVAL_MINUTES"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upload   UploadConfig   `toml:"upload"`
	OAuth    OAuthConfig    `toml:"oauth"`
	Database DatabaseConfig `toml:"database"`
	Sync     SyncConfig     `toml:"sync"`
	Paths    PathsConfig    `toml:"paths"`
}

// ServerConfig contains relay server settings. Timeouts are Go duration strings; empty disables the timeout.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	ReadTimeout       string `toml:"read_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
}

// UploadConfig bounds the /upload route.
type UploadConfig struct {
	MaxBytes    int64   `toml:"max_bytes"`
	RateLimit   float64 `toml:"rate_limit"` // requests per second, 0 disables limiting
	Burst       int     `toml:"burst"`
	DefaultMIME string  `toml:"default_mime"`
}

// OAuthConfig contains the provider settings used by the desktop login flow.
type OAuthConfig struct {
	ClientID       string   `toml:"client_id"`
	AuthURL        string   `toml:"auth_url"`
	TokenURL       string   `toml:"token_url"`
	Scopes         []string `toml:"scopes"`
	RedirectPort   int      `toml:"redirect_port"`
	TimeoutSeconds uint64   `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig holds the host's background sync cadence.
type SyncConfig struct {
	IntervalMinutes uint64 `toml:"interval_minutes"`
}

// PathsConfig overrides derived filesystem locations.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
}

// ServerTimeouts holds the parsed connection-level timeouts of [ServerConfig].
type ServerTimeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// Addr returns the host:port the relay binds.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Timeouts parses the configured duration strings.
func (s ServerConfig) Timeouts() (ServerTimeouts, error) {
	var t ServerTimeouts
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"read_header_timeout", s.ReadHeaderTimeout, &t.ReadHeader},
		{"read_timeout", s.ReadTimeout, &t.Read},
		{"write_timeout", s.WriteTimeout, &t.Write},
		{"idle_timeout", s.IdleTimeout, &t.Idle},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return ServerTimeouts{}, fmt.Errorf("%w: server.%s: %v", ErrInvalidConfig, f.name, err)
		}
		*f.dst = d
	}
	return t, nil
}

// Timeout returns the one-shot listener bound, defaulting to five minutes.
func (o OAuthConfig) Timeout() time.Duration {
	if o.TimeoutSeconds == 0 {
		return 300 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Validate checks port ranges and timeout syntax.
func (c *Config) Validate() error {
	if err := validPort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := validPort("oauth.redirect_port", c.OAuth.RedirectPort); err != nil {
		return err
	}
	if _, err := c.Server.Timeouts(); err != nil {
		return err
	}
	if c.Upload.MaxBytes < 0 {
		return fmt.Errorf("%w: upload.max_bytes must not be negative", ErrInvalidConfig)
	}
	if c.Upload.RateLimit < 0 {
		return fmt.Errorf("%w: upload.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s %d out of range", ErrInvalidConfig, name, port)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Resolved holds values derived once at startup from [Config] and the environment.
//
// It is passed explicitly to whatever needs it; nothing reads it from package state.
type Resolved struct {
	DataDir             string `json:"data_dir"`
	DatabasePath        string `json:"db_path"`
	DatabaseURL         string `json:"db_url"`
	SyncIntervalMinutes uint64 `json:"sync_interval_minutes"`
	LANAddress          string `json:"ip_address"`
	Port                int    `json:"port"`
	ScanURL             string `json:"scan_url"`
}

var (
	executableDir = defaultExecutableDir
	lookupEnv     = os.LookupEnv
)

// Resolve derives the data directory, database location, sync interval, and LAN scan URL.
//
// The data directory is created if it does not exist.
func (c *Config) Resolve() (*Resolved, error) {
	dataDir := c.Paths.DataDir
	if dataDir == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate executable: %w", err)
		}
		dataDir = filepath.Join(exeDir, "data")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}

	dbPath := c.Database.Path
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "database.db")
	}

	interval := c.Sync.IntervalMinutes
	if v, ok := lookupEnv(SyncIntervalEnv); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			interval = n
		}
	}
	if interval == 0 {
		interval = 60
	}

	ip := LANAddress()

	return &Resolved{
		DataDir:             dataDir,
		DatabasePath:        dbPath,
		DatabaseURL:         "sqlite:" + dbPath,
		SyncIntervalMinutes: interval,
		LANAddress:          ip,
		Port:                c.Server.Port,
		ScanURL:             fmt.Sprintf("http://%s:%d/scan", ip, c.Server.Port),
	}, nil
}

// defaultExecutableDir prefers the AppImage location over the temporary mount.
func defaultExecutableDir() (string, error) {
	if appimage, ok := lookupEnv("APPIMAGE"); ok && appimage != "" {
		return filepath.Dir(appimage), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
