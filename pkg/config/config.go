package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// StoreConfig selects the record-store backend.
type StoreConfig struct {
	// Backend is one of "memory", "mongo" or "redis".
	Backend       string `yaml:"backend"`
	MongoURI      string `yaml:"mongoURI"`
	MongoDatabase string `yaml:"mongoDatabase"`
	RedisAddr     string `yaml:"redisAddr"`
}

type Config struct {
	Port         string      `yaml:"port"`
	FrontendHost string      `yaml:"frontendHost"`
	MaxWorkers   int         `yaml:"maxWorkers"`
	Bet          int64       `yaml:"bet"`
	BlockedWords []string    `yaml:"blockedWords"`
	Store        StoreConfig `yaml:"store"`
}

// ParseConfig loads the server configuration from a yaml file, panicking
// on an unreadable or unparsable file: a broken config should stop start-up.
func ParseConfig(path string) *Config {
	configFile, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("Unable to read config '%s': %s", path, err))
	}

	var config Config
	if err := yaml.Unmarshal(configFile, &config); err != nil {
		panic(fmt.Sprintf("Unable to parse yaml config '%s': %s", path, err))
	}
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 10
	}
	if c.Bet <= 0 {
		c.Bet = 100
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "tencard"
	}
}
