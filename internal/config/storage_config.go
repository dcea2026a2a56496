package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	storageDriverEnvVar = "NIMBU_STORAGE"
	redisAddrEnvVar     = "NIMBU_REDIS_ADDR"
	redisPasswordEnvVar = "NIMBU_REDIS_PASSWORD"
	redisDBEnvVar       = "NIMBU_REDIS_DB"
	redisTTLEnvVar      = "NIMBU_REDIS_TTL"
	redisPrefixEnvVar   = "NIMBU_REDIS_PREFIX"
	sqlitePathEnvVar    = "NIMBU_SQLITE_PATH"
)

// Persistent storage drivers.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisTTL() time.Duration
	GetRedisPrefix() string
	GetSQLitePath() string
}

type Storage struct {
	source
}

var _ StorageConfig = Storage{}

// GetStorageDriver selects the persistent tier; defaults to sqlite.
func (s Storage) GetStorageDriver() string {
	return strings.ToLower(s.get(storageDriverEnvVar, StorageSQLite))
}

func (s Storage) GetRedisAddr() string {
	return s.get(redisAddrEnvVar, "localhost:6379")
}

func (s Storage) GetRedisPassword() string {
	return s.get(redisPasswordEnvVar, "")
}

func (s Storage) GetRedisDB() int {
	db, err := strconv.Atoi(s.get(redisDBEnvVar, "0"))
	if err != nil {
		return 0
	}
	return db
}

// GetRedisTTL is zero (no expiry) unless configured.
func (s Storage) GetRedisTTL() time.Duration {
	ttl, err := s.parseDuration(redisTTLEnvVar, "0")
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func (s Storage) GetRedisPrefix() string {
	return s.get(redisPrefixEnvVar, "")
}

func (s Storage) GetSQLitePath() string {
	return s.get(sqlitePathEnvVar, filepath.Join(EnvVars{s.source}.GetDataFolder(), "nimbu.db"))
}
