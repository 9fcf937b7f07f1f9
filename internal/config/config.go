package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "JOBCARD"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Reference SourceConfig    `mapstructure:"reference"`
	Materials MaterialsConfig `mapstructure:"materials"`
	Report    ReportConfig    `mapstructure:"report"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// SessionConfig bounds idle sessions. Sessions that never logged in use the
// shorter AnonymousTTL, and at most MaxAnonymous of them are kept.
type SessionConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	AnonymousTTL time.Duration `mapstructure:"anonymous_ttl"`
	MaxAnonymous int           `mapstructure:"max_anonymous"`
}

// AuthConfig is the login allow-list. Users maps a username to its password
// hash; the hash may be empty when RequirePassword is false.
type AuthConfig struct {
	RequirePassword bool              `mapstructure:"require_password"`
	Users           map[string]string `mapstructure:"users"`
	AdminUsername   string            `mapstructure:"admin_username"`
	AdminPassword   string            `mapstructure:"admin_password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SourceConfig describes where a reference sheet lives inside an uploaded workbook.
type SourceConfig struct {
	PresetPath string `mapstructure:"preset_path"`
	Sheet      string `mapstructure:"sheet"`
	HeaderRow  int    `mapstructure:"header_row"`
	SkipRows   int    `mapstructure:"skip_rows"`
	KeyColumn  string `mapstructure:"key_column"`
	Charset    string `mapstructure:"charset"`
}

type MaterialsConfig struct {
	SourceConfig     `mapstructure:",squash"`
	AllowedTypes     []string `mapstructure:"allowed_types"`
	ExcludedPrefixes []string `mapstructure:"excluded_prefixes"`
}

type ReportConfig struct {
	Client      string `mapstructure:"client"`
	Project     string `mapstructure:"project"`
	Title       string `mapstructure:"title"`
	Vendor      string `mapstructure:"vendor"`
	Instruction string `mapstructure:"instruction"`
	LeftLogo    string `mapstructure:"left_logo"`
	RightLogo   string `mapstructure:"right_logo"`
}

type ArchiveConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads an optional YAML file and JOBCARD_* environment overrides.
// With an empty path, jobcard.yaml is searched in . and ./configs and may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jobcard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_mb", 20)

	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.anonymous_ttl", 30*time.Minute)
	v.SetDefault("session.max_anonymous", 10000)

	v.SetDefault("auth.require_password", true)
	v.SetDefault("auth.users", map[string]string{})
	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("reference.preset_path", "")
	v.SetDefault("reference.sheet", "Spool")
	v.SetDefault("reference.header_row", 8)
	v.SetDefault("reference.skip_rows", 1)
	v.SetDefault("reference.key_column", "PF Code")
	v.SetDefault("reference.charset", "")

	v.SetDefault("materials.preset_path", "")
	v.SetDefault("materials.sheet", "Material")
	v.SetDefault("materials.header_row", 1)
	v.SetDefault("materials.skip_rows", 0)
	v.SetDefault("materials.key_column", "Spool")
	v.SetDefault("materials.charset", "")
	v.SetDefault("materials.allowed_types", []string{"PIPE", "FITTING", "FLANGE", "GASKET", "BOLT"})
	v.SetDefault("materials.excluded_prefixes", []string{"SUP", "WLD"})

	v.SetDefault("report.client", "PETROBRAS")
	v.SetDefault("report.project", "FPSO_P-82")
	v.SetDefault("report.title", "Request For Fabrication")
	v.SetDefault("report.vendor", "EJA")
	v.SetDefault("report.instruction", "Special Instruction : Please be informed that Materials for the following. SPOOL PIECE No.[s] are available for Issuance.")
	v.SetDefault("report.left_logo", "")
	v.SetDefault("report.right_logo", "")

	v.SetDefault("archive.dir", "")
}

// bindLegacyEnv keeps the unprefixed variable names written by `jobcard setup`.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.addr", envPrefix+"_SERVER_ADDR", "CLIENT_ADDR")
	_ = v.BindEnv("auth.admin_username", envPrefix+"_AUTH_ADMIN_USERNAME", "ADMIN_USERNAME")
	_ = v.BindEnv("auth.admin_password", envPrefix+"_AUTH_ADMIN_PASSWORD", "ADMIN_PASSWORD")
	_ = v.BindEnv("reference.preset_path", envPrefix+"_REFERENCE_PRESET_PATH", "PRESET_REFERENCE_PATH")
	_ = v.BindEnv("archive.dir", envPrefix+"_ARCHIVE_DIR", "ARCHIVE_DIR")
}

func (c *Config) normalize() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Auth.AdminUsername = strings.TrimSpace(c.Auth.AdminUsername)
	if c.Auth.Users == nil {
		c.Auth.Users = map[string]string{}
	}
	c.Materials.AllowedTypes = trimAll(c.Materials.AllowedTypes)
	c.Materials.ExcludedPrefixes = trimAll(c.Materials.ExcludedPrefixes)
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Session.TTL <= 0 || c.Session.AnonymousTTL <= 0 {
		return errors.New("session.ttl and session.anonymous_ttl must be positive")
	}
	if c.Session.MaxAnonymous < 1 {
		return errors.New("session.max_anonymous must be at least 1")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	if c.Reference.HeaderRow < 1 || c.Materials.HeaderRow < 1 {
		return errors.New("header_row is 1-based and must be at least 1")
	}
	if c.Reference.SkipRows < 0 || c.Materials.SkipRows < 0 {
		return errors.New("skip_rows cannot be negative")
	}
	if strings.TrimSpace(c.Reference.KeyColumn) == "" || strings.TrimSpace(c.Materials.KeyColumn) == "" {
		return errors.New("key_column is required")
	}
	return nil
}

// MaxUploadBytes is the request body limit for one upload form.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// LoadDotEnv loads a .env file without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func WriteDotEnv(path string, values map[string]string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
