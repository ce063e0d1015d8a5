// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pagkit/pkg/log"

	"gopkg.in/yaml.v3"
)

// ConfigEnv stores system configuration.
type ConfigEnv struct {
	StorageDir string `yaml:"storageDir"`
	OutputDir  string `yaml:"outputDir"`

	// CacheSize is the mux cache limit in megabytes, 0 disables the cache.
	CacheSize *int64 `yaml:"cacheSize"`
	LogLevel  string `yaml:"logLevel"`

	// LogFile enables a daily rotated log file if set.
	LogFile string `yaml:"logFile"`

	// Loop appends the leading group of pictures to every muxed video.
	Loop bool `yaml:"loop"`

	HomeDir   string `yaml:"homeDir"`
	ConfigDir string `yaml:"-"`
}

// Errors.
var (
	ErrPathNotAbsolute  = errors.New("path is not absolute")
	ErrInvalidCacheSize = errors.New("invalid cache size")
)

const defaultCacheSize = 256

// NewConfigEnv return new environment configuration.
func NewConfigEnv(envPath string, envYAML []byte) (*ConfigEnv, error) {
	var env ConfigEnv

	if err := yaml.Unmarshal(envYAML, &env); err != nil {
		return nil, fmt.Errorf("unmarshal env.yaml: %w", err)
	}

	env.ConfigDir = filepath.Dir(envPath)

	if env.HomeDir == "" {
		env.HomeDir = filepath.Dir(env.ConfigDir)
	}
	if env.StorageDir == "" {
		env.StorageDir = filepath.Join(env.HomeDir, "storage")
	}
	if env.OutputDir == "" {
		env.OutputDir = filepath.Join(env.HomeDir, "output")
	}
	if env.CacheSize == nil {
		size := int64(defaultCacheSize)
		env.CacheSize = &size
	}
	if env.LogLevel == "" {
		env.LogLevel = log.LevelInfo.String()
	}

	if *env.CacheSize < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCacheSize, *env.CacheSize)
	}
	if _, err := log.ParseLevel(env.LogLevel); err != nil {
		return nil, fmt.Errorf("logLevel: %w", err)
	}

	if !filepath.IsAbs(env.HomeDir) {
		return nil, fmt.Errorf("homeDir '%v': %w", env.HomeDir, ErrPathNotAbsolute)
	}
	if !filepath.IsAbs(env.StorageDir) {
		return nil, fmt.Errorf("storageDir '%v': %w", env.StorageDir, ErrPathNotAbsolute)
	}
	if !filepath.IsAbs(env.OutputDir) {
		return nil, fmt.Errorf("outputDir '%v': %w", env.OutputDir, ErrPathNotAbsolute)
	}
	if env.LogFile != "" && !filepath.IsAbs(env.LogFile) {
		return nil, fmt.Errorf("logFile '%v': %w", env.LogFile, ErrPathNotAbsolute)
	}

	return &env, nil
}

// Level returns the parsed log level.
func (env ConfigEnv) Level() log.Level {
	level, err := log.ParseLevel(env.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// CacheBytes returns the configured cache limit in bytes.
func (env ConfigEnv) CacheBytes() int64 {
	if env.CacheSize == nil {
		return defaultCacheSize * int64(megabyte)
	}
	return *env.CacheSize * int64(megabyte)
}

// CachePath returns the path to the mux cache database.
func (env ConfigEnv) CachePath() string {
	return filepath.Join(env.StorageDir, "cache.db")
}

// LogDBPath returns the path to the log database.
func (env ConfigEnv) LogDBPath() string {
	return filepath.Join(env.StorageDir, "logs.db")
}

// PrepareEnvironment prepares directories.
func (env ConfigEnv) PrepareEnvironment() error {
	err := os.MkdirAll(env.StorageDir, 0o700)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create storage directory: %v: %w", env.StorageDir, err)
	}

	err = os.MkdirAll(env.OutputDir, 0o700)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create output directory: %v: %w", env.OutputDir, err)
	}

	return nil
}

const (
	kilobyte float64 = 1000
	megabyte         = kilobyte * 1000
	gigabyte         = megabyte * 1000
	terabyte         = gigabyte * 1000
)

// FormatSize formats a byte count for log messages.
func FormatSize(used float64) string {
	switch {
	case used < 1000*kilobyte:
		return fmt.Sprintf("%.0fKB", used/kilobyte)
	case used < 1000*megabyte:
		return fmt.Sprintf("%.0fMB", used/megabyte)
	case used < 10*gigabyte:
		return fmt.Sprintf("%.2fGB", used/gigabyte)
	case used < 100*gigabyte:
		return fmt.Sprintf("%.1fGB", used/gigabyte)
	case used < 1000*gigabyte:
		return fmt.Sprintf("%.0fGB", used/gigabyte)
	case used < 10*terabyte:
		return fmt.Sprintf("%.2fTB", used/terabyte)
	case used < 100*terabyte:
		return fmt.Sprintf("%.1fTB", used/terabyte)
	default:
		return fmt.Sprintf("%.0fTB", used/terabyte)
	}
}
