package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	configFileEnvVar = "NIMBU_CONFIG"
	envEnvVar        = "ENV"
	logLevelEnvVar   = "NIMBU_LOG_LEVEL"
	timeoutEnvVar    = "NIMBU_TIMEOUT"
	dataFolderEnvVar = "NIMBU_DATA_DIR"

	defaultTimeout = "30s"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() zerolog.Level
	GetTimeout() time.Duration
	GetDataFolder() string
}

type EnvVars struct {
	source
}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return "nimbu"
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.get(envEnvVar, "DEV"))
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

// GetLogLevel defaults to info, or debug in DEV. Unknown levels fall back to info.
func (e EnvVars) GetLogLevel() zerolog.Level {
	defaultLevel := "info"
	if e.IsDev() {
		defaultLevel = "debug"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(e.get(logLevelEnvVar, defaultLevel)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// GetTimeout is the HTTP client timeout. Invalid values fall back to 30s.
func (e EnvVars) GetTimeout() time.Duration {
	timeout, err := e.parseDuration(timeoutEnvVar, defaultTimeout)
	if err != nil || timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}

func (e EnvVars) GetDataFolder() string {
	return e.get(dataFolderEnvVar, "./data")
}
