package config

import (
	"strconv"

	"github.com/jrsteele09/go-nimbu-client/internal/errors"
)

type Config interface {
	EnvConfig
	OAuthConfig
	StorageConfig
	Validate() error
}

type mainConfig struct {
	EnvVars
	OAuth
	Storage
}

// New reads configuration from the environment, overlaid on the optional
// YAML file named by NIMBU_CONFIG. Environment variables win over the file.
func New() (Config, error) {
	src, err := newSource(GetEnv(configFileEnvVar, ""))
	if err != nil {
		return nil, err
	}
	return mainConfig{
		EnvVars: EnvVars{src},
		OAuth:   OAuth{src},
		Storage: Storage{src},
	}, nil
}

func (c mainConfig) Validate() error {
	if c.GetClientID() == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s is required", clientIDEnvVar)
	}
	switch c.GetStorageDriver() {
	case StorageMemory, StorageRedis, StorageSQLite:
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "unknown storage driver %q", c.GetStorageDriver())
	}
	if _, err := c.EnvVars.parseDuration(timeoutEnvVar, defaultTimeout); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s: %v", timeoutEnvVar, err)
	}
	if _, err := c.Storage.parseDuration(redisTTLEnvVar, "0"); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s: %v", redisTTLEnvVar, err)
	}
	if db := c.Storage.get(redisDBEnvVar, "0"); !isInt(db) {
		return errors.Wrapf(errors.ErrInvalidConfig, "%s: %q is not a number", redisDBEnvVar, db)
	}
	return nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
