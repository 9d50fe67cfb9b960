package tool

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/detectview/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

// environment overrides, applied after the config file and before CLI flags.
const (
	EnvServer       = "DETECTVIEW_SERVER"
	EnvPort         = "DETECTVIEW_PORT"
	EnvHistoryPath  = "DETECTVIEW_HISTORY"
	EnvNotifySocket = "DETECTVIEW_NOTIFY_SOCKET"
	EnvPollInterval = "DETECTVIEW_POLL_INTERVAL_MS"
	EnvMaxPoll      = "DETECTVIEW_MAX_POLL_SECONDS"
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Server:          "http://localhost:5000", // the detection server's dev address
		Port:            5080,
		PollIntervalMs:  500,
		MaxPollSeconds:  600, // indefinite polling has no recovery path, give up after 10 minutes
		StatsIntervalS:  30,
		NoticeSeconds:   5,
		RequestTimeoutS: 30,
		HistoryPath:     "",
		NotifySocket:    "",
		Ping:            false,
	}
}

// LoadConfig reads the yaml config at path, creating it with defaults when missing,
// then applies .env / environment overrides.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	switch {
	case err != nil && os.IsNotExist(err):
		if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
			return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
		}
		DefaultLogger.Infof("Created new config file %s", path)
	case err != nil:
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	case info.IsDir():
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		DefaultLogger.Debugf("Failed to load .env: %v", err)
	}
	applyEnv(&cfg)
	normalizeConfig(&cfg)

	CurrentConfig = cfg
	return cfg, nil
}

func applyEnv(cfg *types.AppConfig) {
	if v := os.Getenv(EnvServer); v != "" {
		cfg.Server = v
	}
	if v := getEnvAsInt(EnvPort); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv(EnvNotifySocket); v != "" {
		cfg.NotifySocket = v
	}
	if v := getEnvAsInt(EnvPollInterval); v > 0 {
		cfg.PollIntervalMs = v
	}
	if v := getEnvAsInt(EnvMaxPoll); v > 0 {
		cfg.MaxPollSeconds = v
	}
}

func getEnvAsInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		DefaultLogger.Warnf("Ignoring %s=%q: %v", key, value, err)
		return 0
	}
	return n
}

// normalizeConfig replaces zero or negative values with defaults.
func normalizeConfig(cfg *types.AppConfig) {
	def := DefaultConfig()
	cfg.Server = strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	if cfg.Server == "" {
		cfg.Server = def.Server
	}
	if cfg.Port <= 0 {
		cfg.Port = def.Port
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = def.PollIntervalMs
	}
	if cfg.MaxPollSeconds <= 0 {
		cfg.MaxPollSeconds = def.MaxPollSeconds
	}
	if cfg.StatsIntervalS <= 0 {
		cfg.StatsIntervalS = def.StatsIntervalS
	}
	if cfg.NoticeSeconds <= 0 {
		cfg.NoticeSeconds = def.NoticeSeconds
	}
	if cfg.RequestTimeoutS <= 0 {
		cfg.RequestTimeoutS = def.RequestTimeoutS
	}
}

// ApplyFlags merges CLI flag overrides into cfg. Flags win over file and environment.
func ApplyFlags(cfg *types.AppConfig, flags types.Config) {
	if flags.UseServer != "" {
		cfg.Server = strings.TrimRight(flags.UseServer, "/")
	}
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseHistoryPath != "" {
		cfg.HistoryPath = flags.UseHistoryPath
	}
	if flags.UsePing {
		cfg.Ping = true
	}
	CurrentConfig = *cfg
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}

func PollInterval(cfg types.AppConfig) time.Duration {
	return time.Duration(cfg.PollIntervalMs) * time.Millisecond
}

func MaxPollDuration(cfg types.AppConfig) time.Duration {
	return time.Duration(cfg.MaxPollSeconds) * time.Second
}

func StatsInterval(cfg types.AppConfig) time.Duration {
	return time.Duration(cfg.StatsIntervalS) * time.Second
}

func NoticeTTL(cfg types.AppConfig) time.Duration {
	return time.Duration(cfg.NoticeSeconds) * time.Second
}

func RequestTimeout(cfg types.AppConfig) time.Duration {
	return time.Duration(cfg.RequestTimeoutS) * time.Second
}
