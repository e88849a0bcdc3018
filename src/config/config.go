package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"screen-math-llm/src/prompt"
)

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultEndpoint   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultHotkey     = "Ctrl+Alt+M"
	DefaultAPIKeyPath = "/run/secrets/api_keys/gemini"

	APIKeyEnvVar      = "GEMINI_API_KEY"
	APIKeyPathEnvVar  = "GEMINI_API_KEY_FILE"
	ConfigFileEnvVar  = "SCREEN_MATH_CONFIG"
	EnvFileEnvVar     = "SCREEN_MATH_ENV"
	DefaultModeEnvVar = "DEFAULT_MODE"

	DefaultModeDirect = "direct"
	DefaultModeSteps  = "steps"
)

type LoadOptions struct {
	APIKeyPathOverride  string
	ConfigFileOverride  string
	DefaultModeOverride string
	ModelOverride       string
}

// Config is immutable after Load; components receive copies of the fields they need.
type Config struct {
	APIKey            string `yaml:"-"`
	APIKeyPath        string `yaml:"api_key_path"`
	Model             string `yaml:"model"`
	Endpoint          string `yaml:"endpoint"`
	EnableFileLogging bool   `yaml:"enable_file_logging"`
	DebugSaveImages   bool   `yaml:"debug_save_images"`
	Hotkey            string `yaml:"hotkey"`
	DefaultMode       string `yaml:"default_mode"`
	MinFontSize       int    `yaml:"min_font_size"`
	MaxFontSize       int    `yaml:"max_font_size"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		APIKeyPath:  DefaultAPIKeyPath,
		Model:       DefaultModel,
		Endpoint:    DefaultEndpoint,
		Hotkey:      DefaultHotkey,
		DefaultMode: DefaultModeDirect,
		MinFontSize: 10,
		MaxFontSize: 20,
	}
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in increasing priority:
	// 1) defaults
	// 2) YAML file from --config or SCREEN_MATH_CONFIG
	// 3) .env in the executable directory, else SCREEN_MATH_ENV
	// 4) process environment
	// 5) LoadOptions
	cfg := Default()

	if path := resolveConfigFile(opts); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg.Model = getEnvWithDefault("MODEL", cfg.Model)
	cfg.Endpoint = strings.TrimRight(getEnvWithDefault("GEMINI_ENDPOINT", cfg.Endpoint), "/")
	cfg.Hotkey = getEnvWithDefault("HOTKEY", cfg.Hotkey)
	cfg.EnableFileLogging = getEnvBool("ENABLE_FILE_LOGGING", cfg.EnableFileLogging)
	cfg.DebugSaveImages = getEnvBool("DEBUG_SAVE_IMAGES", cfg.DebugSaveImages)

	if m := strings.TrimSpace(opts.ModelOverride); m != "" {
		cfg.Model = m
	}

	cfg.APIKeyPath = resolveAPIKeyPath(cfg.APIKeyPath, opts, dotenvValues)
	cfg.APIKey = resolveAPIKey(cfg.APIKeyPath)
	mode, err := resolveDefaultModeValue(cfg.DefaultMode, opts)
	if err != nil {
		return nil, err
	}
	cfg.DefaultMode = mode

	if cfg.MinFontSize <= 0 || cfg.MaxFontSize < cfg.MinFontSize {
		return nil, fmt.Errorf("invalid font bounds: min=%d max=%d", cfg.MinFontSize, cfg.MaxFontSize)
	}

	return cfg, nil
}

// Validate reports the first missing setting needed to reach the inference endpoint.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s is required. Checked key file %s and %s env var", APIKeyEnvVar, c.APIKeyPath, APIKeyEnvVar)
	}
	if c.Model == "" {
		return fmt.Errorf("MODEL is required. Please set it in your .env file")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("GEMINI_ENDPOINT must not be empty")
	}
	return nil
}

// HotkeyEnabled is false when the hotkey is blank or explicitly "none".
func (c *Config) HotkeyEnabled() bool {
	h := strings.ToLower(strings.TrimSpace(c.Hotkey))
	return h != "" && h != "none" && h != "off"
}

func resolveConfigFile(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.ConfigFileOverride); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(ConfigFileEnvVar))
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(keyPath string, opts LoadOptions, dotenvValues map[string]string) string {
	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if keyPath != "" {
		if data, err := os.ReadFile(keyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey
			}
		}
	}

	return strings.TrimSpace(os.Getenv(APIKeyEnvVar))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

// resolveDefaultMode normalizes a mode name to DefaultModeDirect or
// DefaultModeSteps. Unknown names are an error naming their source.
func resolveDefaultMode(value, source string) (string, error) {
	mode, err := prompt.ParseMode(value)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w (use %s or %s)", source, err, DefaultModeDirect, DefaultModeSteps)
	}
	if mode == prompt.StepByStep {
		return DefaultModeSteps, nil
	}
	return DefaultModeDirect, nil
}

func resolveDefaultModeValue(current string, opts LoadOptions) (string, error) {
	if override := strings.TrimSpace(opts.DefaultModeOverride); override != "" {
		return resolveDefaultMode(override, "--mode")
	}
	if env := os.Getenv(DefaultModeEnvVar); env != "" {
		return resolveDefaultMode(env, DefaultModeEnvVar)
	}
	if strings.TrimSpace(current) == "" {
		return DefaultModeDirect, nil
	}
	return resolveDefaultMode(current, "default_mode")
}
