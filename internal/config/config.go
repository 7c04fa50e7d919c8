package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName names the binary and the XDG sub directories.
const AppName = "accessible-pipeline"

const (
	DefaultPageLimit  = 20
	DefaultMaxRetries = 5

	RendererRod  = "rod"
	RendererHTTP = "http"

	AuditorAxe    = "axe"
	AuditorStatic = "static"
)

// ErrConflictingModes is returned when mutually exclusive output modes are enabled together.
var ErrConflictingModes = errors.New("--streaming and --ci are mutually exclusive")

// Config holds the application configuration loaded from flags, files and environment variables.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	LogOutput string `mapstructure:"log_output"`

	PageLimit           int      `mapstructure:"page_limit"`
	MaxRetries          int      `mapstructure:"max_retries"`
	RouteManifestPath   string   `mapstructure:"route_manifest_path"`
	IgnoreFragmentLinks bool     `mapstructure:"ignore_fragment_links"`
	IgnoreExtensions    []string `mapstructure:"ignore_extensions"`
	RequestDelayMs      int64    `mapstructure:"request_delay_ms"`

	Renderer                 string        `mapstructure:"renderer"`
	Auditor                  string        `mapstructure:"auditor"`
	AxeScriptPath            string        `mapstructure:"axe_script_path"`
	Headless                 bool          `mapstructure:"headless"`
	ChromeBin                string        `mapstructure:"chrome_bin"`
	ChromeArgs               []string      `mapstructure:"chrome_args"`
	NavigationTimeoutSeconds int64         `mapstructure:"navigation_timeout_seconds"`
	NavigationTimeout        time.Duration `mapstructure:"-"`

	OutDir         string `mapstructure:"out_dir"`
	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	Streaming bool `mapstructure:"streaming"`
	CI        bool `mapstructure:"ci"`
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"pageLimit":           "page_limit",
	"maxRetries":          "max_retries",
	"routeManifestPath":   "route_manifest_path",
	"ignoreFragmentLinks": "ignore_fragment_links",
	"ignoreExtensions":    "ignore_extensions",
	"requestDelay":        "request_delay_ms",
	"renderer":            "renderer",
	"auditor":             "auditor",
	"axeScript":           "axe_script_path",
	"chromeArg":           "chrome_args",
	"outDir":              "out_dir",
	"publishers":          "publishers_file",
	"logLevel":            "log_level",
	"streaming":           "streaming",
	"ci":                  "ci",
}

// LoadOptions tells Load where to look besides defaults and the environment.
type LoadOptions struct {
	// Flags, when set, override every other source for flags the user changed.
	Flags *pflag.FlagSet
	// ConfigFile is an explicit config file; empty searches "." and the XDG config dir.
	ConfigFile string
}

// Load reads configuration from environment variables, config files and flags.
func Load(opts LoadOptions) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("A11Y")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(XDGConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.IgnoreExtensions = splitList(cfg.IgnoreExtensions)
	cfg.ChromeArgs = splitList(cfg.ChromeArgs)
	cfg.Renderer = strings.ToLower(strings.TrimSpace(cfg.Renderer))
	cfg.Auditor = strings.ToLower(strings.TrimSpace(cfg.Auditor))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.NavigationTimeout = time.Duration(cfg.NavigationTimeoutSeconds) * time.Second
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", AppName)
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_output", "stderr")

	v.SetDefault("page_limit", DefaultPageLimit)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("route_manifest_path", "")
	v.SetDefault("ignore_fragment_links", false)
	v.SetDefault("ignore_extensions", []string{})
	v.SetDefault("request_delay_ms", 0)

	v.SetDefault("renderer", RendererRod)
	v.SetDefault("auditor", AuditorAxe)
	v.SetDefault("axe_script_path", "./axe.min.js")
	v.SetDefault("headless", true)
	v.SetDefault("chrome_bin", "")
	v.SetDefault("chrome_args", []string{})
	v.SetDefault("navigation_timeout_seconds", 30)

	v.SetDefault("out_dir", ".")
	v.SetDefault("publishers_file", "")

	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", filepath.Join(XDGDataDir(), "runs.db"))
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("streaming", false)
	v.SetDefault("ci", false)
}

// bindFlags binds only the flags the caller defined, so one FlagSet type can serve several commands.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Streaming && c.CI {
		return ErrConflictingModes
	}
	if c.PageLimit < 0 {
		return fmt.Errorf("invalid page_limit %d (must not be negative)", c.PageLimit)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("invalid max_retries %d (must be positive)", c.MaxRetries)
	}
	if c.RequestDelayMs < 0 {
		return fmt.Errorf("invalid request_delay_ms %d (must not be negative)", c.RequestDelayMs)
	}
	switch c.Renderer {
	case RendererRod, RendererHTTP:
	default:
		return fmt.Errorf("unsupported renderer %q", c.Renderer)
	}
	switch c.Auditor {
	case AuditorAxe, AuditorStatic:
	default:
		return fmt.Errorf("unsupported auditor %q", c.Auditor)
	}
	if c.Auditor == AuditorAxe && c.Renderer != RendererRod {
		return fmt.Errorf("auditor %q needs the %q renderer", AuditorAxe, RendererRod)
	}
	if c.NavigationTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid navigation_timeout_seconds (must be positive seconds)")
	}
	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	return nil
}

// XDGDataDir returns the per-user data directory, home of the run history database.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user config directory searched for config.yaml.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
