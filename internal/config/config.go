package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CHANGELENS"

// Config represents the changelens configuration.
type Config struct {
	Provider          string        `json:"provider" mapstructure:"provider" validate:"required,oneof=openai anthropic local claude ollama lmstudio"`
	Model             string        `json:"model,omitempty" mapstructure:"model"`
	BaseURL           string        `json:"baseURL,omitempty" mapstructure:"baseURL" validate:"omitempty,url"`
	Format            string        `json:"format" mapstructure:"format" validate:"oneof=markdown text json yaml"`
	ContextWindow     int           `json:"contextWindow" mapstructure:"contextWindow" validate:"gte=0,lte=50"`
	ContextLines      int           `json:"contextLines" mapstructure:"contextLines" validate:"gte=0"`
	MaxDiffBytes      int           `json:"maxDiffBytes" mapstructure:"maxDiffBytes" validate:"gte=0"`
	MaxContentBytes   int           `json:"maxContentBytes" mapstructure:"maxContentBytes" validate:"gte=0"`
	Include           []string      `json:"include" mapstructure:"include"`
	Exclude           []string      `json:"exclude" mapstructure:"exclude"`
	GuidelinesFile    string        `json:"guidelinesFile,omitempty" mapstructure:"guidelinesFile"`
	Concurrency       int           `json:"concurrency" mapstructure:"concurrency" validate:"gte=1,lte=32"`
	FailFast          bool          `json:"failFast" mapstructure:"failFast"`
	RequestsPerMinute int           `json:"requestsPerMinute" mapstructure:"requestsPerMinute" validate:"gte=0"`
	LogLevel          string        `json:"logLevel" mapstructure:"logLevel"`
	LogFormat         string        `json:"logFormat" mapstructure:"logFormat" validate:"oneof=console json"`
	Project           ProjectConfig `json:"project" mapstructure:"project"`
	Cache             CacheConfig   `json:"cache" mapstructure:"cache"`
	Privacy           PrivacyConfig `json:"privacy" mapstructure:"privacy"`
}

// ProjectConfig overrides detected project metadata.
type ProjectConfig struct {
	Purpose string `json:"purpose,omitempty" mapstructure:"purpose"`
}

// CacheConfig controls caching behavior. A non-empty RedisAddr selects the
// shared Redis store over the file store.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Dir        string `json:"dir,omitempty" mapstructure:"dir"`
	TTLSeconds int    `json:"ttlSeconds" mapstructure:"ttlSeconds" validate:"gte=0"`
	RedisAddr  string `json:"redisAddr,omitempty" mapstructure:"redisAddr"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" mapstructure:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty" mapstructure:"redactPaths"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:        "anthropic",
		Format:          "markdown",
		ContextWindow:   3,
		ContextLines:    3,
		MaxDiffBytes:    500000,
		MaxContentBytes: 100000,
		Include:         []string{},
		Exclude:         []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/*.lock", "**/package-lock.json"},
		Concurrency:     1,
		LogLevel:        "WARN",
		LogFormat:       "console",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// keys maps every config key to its environment variable suffix.
var keys = []struct{ key, env string }{
	{"provider", "PROVIDER"},
	{"model", "MODEL"},
	{"baseURL", "BASE_URL"},
	{"format", "FORMAT"},
	{"contextWindow", "CONTEXT_WINDOW"},
	{"contextLines", "CONTEXT_LINES"},
	{"maxDiffBytes", "MAX_DIFF_BYTES"},
	{"maxContentBytes", "MAX_CONTENT_BYTES"},
	{"include", "INCLUDE"},
	{"exclude", "EXCLUDE"},
	{"guidelinesFile", "GUIDELINES_FILE"},
	{"concurrency", "CONCURRENCY"},
	{"failFast", "FAIL_FAST"},
	{"requestsPerMinute", "REQUESTS_PER_MINUTE"},
	{"logLevel", "LOG_LEVEL"},
	{"logFormat", "LOG_FORMAT"},
	{"project.purpose", "PROJECT_PURPOSE"},
	{"cache.enabled", "CACHE_ENABLED"},
	{"cache.dir", "CACHE_DIR"},
	{"cache.ttlSeconds", "CACHE_TTL_SECONDS"},
	{"cache.redisAddr", "REDIS_ADDR"},
	{"privacy.redactSecrets", "REDACT_SECRETS"},
	{"privacy.redactPaths", "REDACT_PATHS"},
}

// Keys lists the config keys accepted by SetField, in display order.
func Keys() []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}

// EnvName returns the environment variable read for key.
func EnvName(key string) string {
	for _, k := range keys {
		if strings.EqualFold(k.key, key) {
			return EnvPrefix + "_" + k.env
		}
	}
	return ""
}

// ConfigDir returns the platform-appropriate config directory for changelens.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "changelens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "changelens"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "changelens"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "changelens"), nil
	default:
		return filepath.Join(home, ".config", "changelens"), nil
	}
}

// ConfigPath returns the full path to the JSON config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// existingConfigFile returns config.json, or config.yaml/config.yml when
// only those exist. It returns "" when there is no config file.
func existingConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// LoadEnvFile loads <config dir>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "loading %s", path)
}

// LoadFile returns defaults overlaid with the config file only, ignoring
// the environment. It is the base that `config set` edits.
func LoadFile() (Config, error) {
	v, err := newViper(false)
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

// Load builds the effective config by merging defaults <- file <- env <-
// flags. Only flags whose names match config keys are bound, and only
// flags the user changed take effect. flags may be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	if err := LoadEnvFile(); err != nil {
		return Config{}, err
	}
	v, err := newViper(true)
	if err != nil {
		return Config{}, err
	}
	if err := BindFlags(v, flags); err != nil {
		return Config{}, errors.Wrap(err, "binding flags")
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BindFlags binds every flag of fs named like a config key, ignoring case,
// dashes and dots, so --context-window binds contextWindow and
// --cache-redis-addr binds cache.redisAddr. Errors from individual bindings
// are collected.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	known := make(map[string]string, len(keys))
	for _, k := range keys {
		known[flatten(k.key)] = k.key
	}

	var result error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := known[flatten(f.Name)]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "flag --%s", f.Name))
		}
	})
	return result
}

func flatten(name string) string {
	return strings.ToLower(strings.NewReplacer("-", "", ".", "").Replace(name))
}

func newViper(withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	path, err := existingConfigFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithHintf(errors.Wrapf(err, "reading config file %s", path),
				"fix or remove the file, or run `changelens config init`")
		}
	}

	if withEnv {
		for _, k := range keys {
			if err := v.BindEnv(k.key, EnvPrefix+"_"+k.env); err != nil {
				return nil, errors.Wrapf(err, "binding env for %s", k.key)
			}
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("baseURL", d.BaseURL)
	v.SetDefault("format", d.Format)
	v.SetDefault("contextWindow", d.ContextWindow)
	v.SetDefault("contextLines", d.ContextLines)
	v.SetDefault("maxDiffBytes", d.MaxDiffBytes)
	v.SetDefault("maxContentBytes", d.MaxContentBytes)
	v.SetDefault("include", d.Include)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("guidelinesFile", d.GuidelinesFile)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("failFast", d.FailFast)
	v.SetDefault("requestsPerMinute", d.RequestsPerMinute)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("logFormat", d.LogFormat)
	v.SetDefault("project.purpose", d.Project.Purpose)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttlSeconds", d.Cache.TTLSeconds)
	v.SetDefault("cache.redisAddr", d.Cache.RedisAddr)
	v.SetDefault("privacy.redactSecrets", d.Privacy.RedactSecrets)
	v.SetDefault("privacy.redactPaths", d.Privacy.RedactPaths)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating config")
	}

	var result error
	for _, fe := range verrs {
		result = multierror.Append(result, errors.Newf("invalid %s %v: must satisfy %s %s",
			fieldKey(fe.Namespace()), fe.Value(), fe.Tag(), fe.Param()))
	}
	return errors.WithHint(result, "check the config file, CHANGELENS_* variables and flags")
}

// fieldKey turns "Config.Cache.TTLSeconds" into "cache.ttlSeconds".
func fieldKey(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	joined := strings.Join(parts, ".")
	for _, k := range keys {
		if strings.EqualFold(k.key, joined) {
			return k.key
		}
	}
	return joined
}

// Save writes the config to the JSON config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// SetField sets a single config field by key name. List keys take a
// comma-separated value. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "baseurl":
		cfg.BaseURL = value
	case "format":
		cfg.Format = value
	case "contextwindow":
		return setInt(&cfg.ContextWindow, "contextWindow", value)
	case "contextlines":
		return setInt(&cfg.ContextLines, "contextLines", value)
	case "maxdiffbytes":
		return setInt(&cfg.MaxDiffBytes, "maxDiffBytes", value)
	case "maxcontentbytes":
		return setInt(&cfg.MaxContentBytes, "maxContentBytes", value)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "guidelinesfile":
		cfg.GuidelinesFile = value
	case "concurrency":
		return setInt(&cfg.Concurrency, "concurrency", value)
	case "failfast":
		return setBool(&cfg.FailFast, "failFast", value)
	case "requestsperminute":
		return setInt(&cfg.RequestsPerMinute, "requestsPerMinute", value)
	case "loglevel":
		cfg.LogLevel = value
	case "logformat":
		cfg.LogFormat = value
	case "project.purpose":
		cfg.Project.Purpose = value
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, "cache.enabled", value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlseconds":
		return setInt(&cfg.Cache.TTLSeconds, "cache.ttlSeconds", value)
	case "cache.redisaddr":
		cfg.Cache.RedisAddr = value
	case "privacy.redactsecrets":
		return setBool(&cfg.Privacy.RedactSecrets, "privacy.redactSecrets", value)
	case "privacy.redactpaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return errors.WithHintf(errors.Newf("unknown config key: %s", key),
			"known keys: %s", strings.Join(Keys(), ", "))
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.Wrapf(err, "%s must be an integer", key)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return errors.Wrapf(err, "%s must be true or false", key)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
