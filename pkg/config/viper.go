// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"strings"
	"sync"

	"github.com/DataDog/viper"
	"github.com/spf13/pflag"
)

// Config is the settings store shared by the commands.
type Config interface {
	Set(key string, value interface{})
	SetDefault(key string, value interface{})
	BindEnvAndSetDefault(key string, value interface{})
	BindPFlag(key string, flag *pflag.Flag) error
	IsSet(key string) bool

	GetString(key string) string
	GetBool(key string) bool
	GetStringSlice(key string) []string

	SetConfigFile(path string)
	ReadInConfig() error
	ConfigFileUsed() string
}

// safeConfig wraps viper with a lock.
type safeConfig struct {
	*viper.Viper
	sync.RWMutex
}

// NewConfig returns a new Config object.
func NewConfig(name string, envPrefix string, envKeyReplacer *strings.Replacer) Config {
	config := &safeConfig{Viper: viper.New()}
	config.SetTypeByDefaultValue(true)
	config.SetConfigName(name)
	config.SetConfigType("yaml")
	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(envKeyReplacer)
	return config
}

// Set wraps Viper for concurrent access
func (c *safeConfig) Set(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.Viper.Set(key, value)
}

// SetDefault wraps Viper for concurrent access
func (c *safeConfig) SetDefault(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.Viper.SetDefault(key, value)
}

// BindEnvAndSetDefault sets the default value and binds the key to its
// MODPOST_ prefixed environment variable.
func (c *safeConfig) BindEnvAndSetDefault(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.Viper.SetDefault(key, value)
	_ = c.Viper.BindEnv(key)
}

// BindPFlag wraps Viper for concurrent access
func (c *safeConfig) BindPFlag(key string, flag *pflag.Flag) error {
	c.Lock()
	defer c.Unlock()
	return c.Viper.BindPFlag(key, flag)
}

// IsSet wraps Viper for concurrent access
func (c *safeConfig) IsSet(key string) bool {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.IsSet(key)
}

// GetString wraps Viper for concurrent access
func (c *safeConfig) GetString(key string) string {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.GetString(key)
}

// GetBool wraps Viper for concurrent access
func (c *safeConfig) GetBool(key string) bool {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.GetBool(key)
}

// GetStringSlice wraps Viper for concurrent access
func (c *safeConfig) GetStringSlice(key string) []string {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.GetStringSlice(key)
}

// SetConfigFile wraps Viper for concurrent access
func (c *safeConfig) SetConfigFile(path string) {
	c.Lock()
	defer c.Unlock()
	c.Viper.SetConfigFile(path)
}

// ReadInConfig wraps Viper for concurrent access
func (c *safeConfig) ReadInConfig() error {
	c.Lock()
	defer c.Unlock()
	return c.Viper.ReadInConfig()
}

// ConfigFileUsed wraps Viper for concurrent access
func (c *safeConfig) ConfigFileUsed() string {
	c.RLock()
	defer c.RUnlock()
	return c.Viper.ConfigFileUsed()
}
