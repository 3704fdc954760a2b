// Package config
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceStatFile = "statfile"
	SourceProcFS   = "procfs"
)

type Config struct {
	ListenAddress         string
	Port                  int     `validate:"min=1,max=65535"`
	RemoteNotifyAddress   string  `validate:"omitempty,hostname_port|hostname_rfc1123|ip"`
	AlertThresholdPercent float64 `validate:"min=0,max=100"`
	Help                  bool

	SampleInterval time.Duration `validate:"gt=0"`
	PushInterval   time.Duration `validate:"gt=0"`
	IdleTimeout    time.Duration `validate:"min=0"`
	WriteTimeout   time.Duration `validate:"gt=0"`

	CounterSource string `validate:"oneof=statfile procfs"`
	StatPath      string `validate:"required_if=CounterSource statfile"`
	ProcMount     string `validate:"required_if=CounterSource procfs"`

	HTTPAddress string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

func Load() *Config {
	_ = godotenv.Load()

	// Logs
	logLevel := getEnv("LOG_LEVEL", "info")
	logFormat := getEnv("LOG_FORMAT", "text")

	// Session server
	listen := getEnv("HEALTHD_LISTEN", "")
	port := getEnvInt("HEALTHD_PORT", 37778)

	// Alerting
	remote := getEnv("HEALTHD_REMOTE", "")
	threshold := getEnvFloat("HEALTHD_THRESHOLD", 90)

	// Timers
	sampleInterval := getEnvDuration("HEALTHD_SAMPLE_INTERVAL", 6*time.Second)
	pushInterval := getEnvDuration("HEALTHD_PUSH_INTERVAL", 3*time.Second)
	idleTimeout := getEnvDuration("HEALTHD_IDLE_TIMEOUT", 0)
	writeTimeout := getEnvDuration("HEALTHD_WRITE_TIMEOUT", 10*time.Second)

	// Counter source
	source := getEnv("HEALTHD_SOURCE", SourceStatFile)
	statPath := getEnv("HEALTHD_STAT_PATH", "/proc/stat")
	procMount := getEnv("HEALTHD_PROC_MOUNT", "/proc")

	// Status HTTP server
	httpAddr := getEnv("HEALTHD_HTTP_ADDR", "")

	return &Config{
		LogLevel:  logLevel,
		LogFormat: logFormat,

		ListenAddress:         listen,
		Port:                  port,
		RemoteNotifyAddress:   remote,
		AlertThresholdPercent: threshold,

		SampleInterval: sampleInterval,
		PushInterval:   pushInterval,
		IdleTimeout:    idleTimeout,
		WriteTimeout:   writeTimeout,

		CounterSource: source,
		StatPath:      statPath,
		ProcMount:     procMount,

		HTTPAddress: httpAddr,
	}
}

// ListenHostPort is the TCP address of the session server, or "" when
// no listen address was configured.
func (c *Config) ListenHostPort() string {
	if c.ListenAddress == "" {
		return ""
	}
	return joinHostPort(c.ListenAddress, c.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}
