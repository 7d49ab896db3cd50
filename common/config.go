/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package common

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	// StoreDriverMem keeps the audit log in process memory
	StoreDriverMem = "mem"
	// StoreDriverNone disables the audit log
	StoreDriverNone = "none"
	// StoreDriverMysql stores the audit log in mysql through gorm
	StoreDriverMysql = "mysql"
	// StoreDriverPostgres stores the audit log in postgres through gorm
	StoreDriverPostgres = "postgres"
	// StoreDriverRedis stores the audit log in redis lists
	StoreDriverRedis = "redis"
)

const envPrefix = "TXCONSOLE_"

// ConsoleConfig is the configuration of the transaction console
type ConsoleConfig struct {
	Server             string            `yaml:"Server"`
	RequestTimeout     int64             `yaml:"RequestTimeout"` // milliseconds
	TimeZone           string            `yaml:"TimeZone"`
	PageSize           int               `yaml:"PageSize"`
	DropStaleResponses bool              `yaml:"DropStaleResponses"`
	LogLevel           string            `yaml:"LogLevel"`
	MetricsListen      string            `yaml:"MetricsListen"`
	Store              map[string]string `yaml:"Store"`
}

// Config is the loaded console config
var Config = ConsoleConfig{}

func resetConfig() {
	Config = ConsoleConfig{
		Server:         "http://localhost:7091",
		RequestTimeout: 10000,
		TimeZone:       "UTC",
		PageSize:       10,
		LogLevel:       "info",
		Store:          map[string]string{"driver": StoreDriverMem},
	}
}

// Location returns the time zone used to format timestamps
func (c *ConsoleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(OrString(c.TimeZone, "UTC"))
	if err != nil {
		return time.UTC
	}
	return loc
}

// Timeout returns RequestTimeout as a duration
func (c *ConsoleConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// MustLoadConfig load config from env and file
func MustLoadConfig() {
	E2P(LoadConfig(""))
}

// LoadConfig loads defaults, then the yaml file, then the env overrides.
// An empty path means TXCONSOLE_CONFIG or conf.yml/conf.sample.yml searched upwards from the working dir.
func LoadConfig(path string) error {
	resetConfig()
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		cont, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(cont, &Config); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		if Config.Store == nil {
			Config.Store = map[string]string{"driver": StoreDriverMem}
		}
	}
	if err := loadFromEnv(&Config); err != nil {
		return err
	}
	Infof("config file: %s loaded, server: %s", OrString(path, "<none>"), Config.Server)
	return CheckConfig()
}

func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range []string{"conf.yml", "conf.sample.yml"} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadFromEnv(c *ConsoleConfig) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	str("SERVER", &c.Server)
	str("TIME_ZONE", &c.TimeZone)
	str("LOG_LEVEL", &c.LogLevel)
	str("METRICS_LISTEN", &c.MetricsListen)
	if v, ok := os.LookupEnv(envPrefix + "REQUEST_TIMEOUT"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		c.RequestTimeout = n
	}
	if v, ok := os.LookupEnv(envPrefix + "PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPAGE_SIZE: %w", envPrefix, err)
		}
		c.PageSize = n
	}
	if v, ok := os.LookupEnv(envPrefix + "DROP_STALE_RESPONSES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDROP_STALE_RESPONSES: %w", envPrefix, err)
		}
		c.DropStaleResponses = b
	}
	for _, k := range []string{"driver", "host", "port", "user", "password", "db"} {
		if v, ok := os.LookupEnv(envPrefix + "STORE_" + strings.ToUpper(k)); ok {
			c.Store[k] = v
		}
	}
	return nil
}

// CheckConfig checks the loaded config
func CheckConfig() error {
	u, err := url.Parse(Config.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("Server should be an absolute http(s) url, got: %q", Config.Server)
	}
	if Config.RequestTimeout <= 0 {
		return errors.New("RequestTimeout should be positive")
	}
	if Config.PageSize < 1 || Config.PageSize > 100 {
		return fmt.Errorf("PageSize should be in [1, 100], got: %d", Config.PageSize)
	}
	if _, err := time.LoadLocation(OrString(Config.TimeZone, "UTC")); err != nil {
		return fmt.Errorf("TimeZone: %w", err)
	}
	switch Config.Store["driver"] {
	case "", StoreDriverMem, StoreDriverNone, StoreDriverMysql, StoreDriverPostgres, StoreDriverRedis:
	default:
		return fmt.Errorf("unknown store driver: %s", Config.Store["driver"])
	}
	return nil
}

func init() {
	resetConfig()
}
