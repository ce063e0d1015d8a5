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
	"os"
	"path/filepath"
	"testing"

	"pagkit/pkg/log"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func newTestEnv(t *testing.T) (string, *ConfigEnv) {
	homeDir := filepath.Join(t.TempDir(), "home")
	configDir := filepath.Join(homeDir, "configs")
	envPath := filepath.Join(configDir, "env.yaml")

	require.NoError(t, os.MkdirAll(configDir, 0o700))

	cacheSize := int64(64)
	env := &ConfigEnv{
		StorageDir: filepath.Join(homeDir, "storage"),
		OutputDir:  filepath.Join(homeDir, "out"),
		CacheSize:  &cacheSize,
		LogLevel:   "debug",
		LogFile:    filepath.Join(homeDir, "pagkit.log"),
		Loop:       true,
		HomeDir:    homeDir,
		ConfigDir:  configDir,
	}
	return envPath, env
}

func marshalEnv(t *testing.T, env *ConfigEnv) []byte {
	envYAML, err := yaml.Marshal(env)
	require.NoError(t, err)
	return envYAML
}

func TestNewConfigEnv(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		envPath, _ := newTestEnv(t)
		homeDir := filepath.Dir(filepath.Dir(envPath))

		env, err := NewConfigEnv(envPath, []byte{})
		require.NoError(t, err)

		cacheSize := int64(defaultCacheSize)
		expected := &ConfigEnv{
			StorageDir: homeDir + "/storage",
			OutputDir:  homeDir + "/output",
			CacheSize:  &cacheSize,
			LogLevel:   "info",
			HomeDir:    homeDir,
			ConfigDir:  homeDir + "/configs",
		}
		require.Equal(t, expected, env)
	})
	t.Run("maximal", func(t *testing.T) {
		envPath, testEnv := newTestEnv(t)

		env, err := NewConfigEnv(envPath, marshalEnv(t, testEnv))
		require.NoError(t, err)
		require.Equal(t, testEnv, env)
		require.Equal(t, log.LevelDebug, env.Level())
		require.Equal(t, int64(64_000_000), env.CacheBytes())
	})
	t.Run("cacheDisabled", func(t *testing.T) {
		envPath, _ := newTestEnv(t)

		env, err := NewConfigEnv(envPath, []byte("cacheSize: 0\n"))
		require.NoError(t, err)
		require.Equal(t, int64(0), env.CacheBytes())
	})
	t.Run("unmarshalErr", func(t *testing.T) {
		_, err := NewConfigEnv("", []byte("&"))
		require.Error(t, err)
	})
	t.Run("cacheSizeErr", func(t *testing.T) {
		envPath, testEnv := newTestEnv(t)
		size := int64(-1)
		testEnv.CacheSize = &size

		_, err := NewConfigEnv(envPath, marshalEnv(t, testEnv))
		require.ErrorIs(t, err, ErrInvalidCacheSize)
	})
	t.Run("logLevelErr", func(t *testing.T) {
		envPath, testEnv := newTestEnv(t)
		testEnv.LogLevel = "loud"

		_, err := NewConfigEnv(envPath, marshalEnv(t, testEnv))
		require.ErrorIs(t, err, log.ErrInvalidLevel)
	})

	absCases := map[string]func(*ConfigEnv){
		"homeDirAbs":    func(env *ConfigEnv) { env.HomeDir = "." },
		"storageDirAbs": func(env *ConfigEnv) { env.StorageDir = "." },
		"outputDirAbs":  func(env *ConfigEnv) { env.OutputDir = "." },
		"logFileAbs":    func(env *ConfigEnv) { env.LogFile = "x.log" },
	}
	for name, modify := range absCases {
		t.Run(name, func(t *testing.T) {
			envPath, testEnv := newTestEnv(t)
			modify(testEnv)

			_, err := NewConfigEnv(envPath, marshalEnv(t, testEnv))
			require.ErrorIs(t, err, ErrPathNotAbsolute)
		})
	}
}

func TestPrepareEnvironment(t *testing.T) {
	_, env := newTestEnv(t)

	require.NoError(t, env.PrepareEnvironment())
	require.DirExists(t, env.StorageDir)
	require.DirExists(t, env.OutputDir)

	// Second call is a no-op.
	require.NoError(t, env.PrepareEnvironment())

	require.Equal(t, filepath.Join(env.StorageDir, "cache.db"), env.CachePath())
	require.Equal(t, filepath.Join(env.StorageDir, "logs.db"), env.LogDBPath())
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		input    float64
		expected string
	}{
		{1000, "1KB"},
		{999 * kilobyte, "999KB"},
		{1 * megabyte, "1MB"},
		{1 * gigabyte, "1.00GB"},
		{10 * gigabyte, "10.0GB"},
		{100 * gigabyte, "100GB"},
		{1 * terabyte, "1.00TB"},
		{10 * terabyte, "10.0TB"},
		{100 * terabyte, "100TB"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, FormatSize(tc.input))
	}
}
