package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jrsteele09/go-nimbu-client/internal/errors"
)

// fileConfig is the layout of the optional YAML configuration file.
type fileConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	Timeout  string `yaml:"timeout"`
	DataDir  string `yaml:"data_dir"`

	Host         string   `yaml:"host"`
	Site         string   `yaml:"site"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Name         string   `yaml:"name"`
	Scope        []string `yaml:"scope"`
	Remember     *bool    `yaml:"remember"`

	Storage struct {
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       *int   `yaml:"db"`
			TTL      string `yaml:"ttl"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`
}

// values flattens the file into the environment variable names it overrides.
func (f fileConfig) values() map[string]string {
	values := map[string]string{
		envEnvVar:           f.Env,
		logLevelEnvVar:      f.LogLevel,
		timeoutEnvVar:       f.Timeout,
		dataFolderEnvVar:    f.DataDir,
		hostEnvVar:          f.Host,
		siteEnvVar:          f.Site,
		clientIDEnvVar:      f.ClientID,
		clientSecretEnvVar:  f.ClientSecret,
		nameEnvVar:          f.Name,
		storageDriverEnvVar: f.Storage.Driver,
		redisAddrEnvVar:     f.Storage.Redis.Addr,
		redisPasswordEnvVar: f.Storage.Redis.Password,
		redisTTLEnvVar:      f.Storage.Redis.TTL,
		redisPrefixEnvVar:   f.Storage.Redis.Prefix,
		sqlitePathEnvVar:    f.Storage.SQLite.Path,
	}
	if len(f.Scope) > 0 {
		values[scopeEnvVar] = joinScope(f.Scope)
	}
	if f.Remember != nil {
		values[rememberEnvVar] = strconv.FormatBool(*f.Remember)
	}
	if f.Storage.Redis.DB != nil {
		values[redisDBEnvVar] = strconv.Itoa(*f.Storage.Redis.DB)
	}
	for k, v := range values {
		if v == "" {
			delete(values, k)
		}
	}
	return values
}

// source resolves a setting from the environment, then the file, then the default.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, errors.Wrapf(err, "reading config file %s", path)
	}

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return source{}, errors.Wrapf(errors.ErrInvalidConfig, "parsing config file %s: %v", path, err)
	}
	return source{file: f.values()}, nil
}

func (s source) get(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value, ok := s.file[envVar]; ok {
		return value
	}
	return defaultValue
}

func (s source) parseDuration(envVar, defaultValue string) (time.Duration, error) {
	return time.ParseDuration(s.get(envVar, defaultValue))
}

// GetEnv returns the environment variable or defaultValue when it is unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
