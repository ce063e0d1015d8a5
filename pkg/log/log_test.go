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

package log

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := NewMockLogger()
	logger.Start(ctx)
	return logger
}

func TestLogger(t *testing.T) {
	t.Run("levels", func(t *testing.T) {
		logger := newTestLogger(t)

		feed, cancel := logger.Subscribe()
		defer cancel()

		cases := []struct {
			event func() *Event
			level Level
		}{
			{logger.Error, LevelError},
			{logger.Warn, LevelWarning},
			{logger.Info, LevelInfo},
			{logger.Debug, LevelDebug},
		}
		for _, tc := range cases {
			t.Run(tc.level.String(), func(t *testing.T) {
				go tc.event().Src("s1").File("a.pag").Time(time.UnixMicro(1000)).Msg("test")

				expected := Log{
					Level: tc.level,
					Time:  1000,
					Msg:   "test",
					Src:   "s1",
					File:  "a.pag",
				}
				require.Equal(t, expected, <-feed)
			})
		}
	})
	t.Run("msgf", func(t *testing.T) {
		logger := newTestLogger(t)

		feed, cancel := logger.Subscribe()
		defer cancel()

		go logger.Info().Msgf("%d frames", 3)
		require.Equal(t, "3 frames", (<-feed).Msg)
	})
	t.Run("unsubBeforePrint", func(t *testing.T) {
		logger := newTestLogger(t)

		feed1, cancel1 := logger.Subscribe()
		feed2, cancel2 := logger.Subscribe()
		cancel2()

		go logger.Info().Msg("test")
		actual1 := <-feed1
		actual2, ok := <-feed2
		cancel1()

		require.Equal(t, "test", actual1.Msg)
		require.False(t, ok)
		require.Equal(t, Log{}, actual2)
	})
	t.Run("unsubAfterPrint", func(t *testing.T) {
		logger := newTestLogger(t)

		_, cancel := logger.Subscribe()

		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				logger.Info().Msg("test")
				wg.Done()
			}()
		}
		time.Sleep(10 * time.Microsecond)

		// Must not deadlock while messages are in flight.
		cancel()
		wg.Wait()
	})
}

type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogToWriter(t *testing.T) {
	logger := newTestLogger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf lockedBuffer
	go logger.LogToWriter(ctx, &buf, LevelInfo)

	// Wait for the writer to subscribe.
	require.Eventually(t, func() bool {
		logger.Warn().Msg("ready")
		return buf.String() != ""
	}, 5*time.Second, 10*time.Millisecond)

	logger.Debug().Msg("hidden")
	logger.Info().Src("decoder").File("a.pag").Msg("decoded")
	logger.Error().Src("muxer").Msg("failed")

	expected := "[INFO] a.pag: Decoder: decoded\n[ERROR] Muxer: failed\n"
	require.Eventually(t, func() bool {
		return strings.HasSuffix(buf.String(), expected)
	}, 5*time.Second, 10*time.Millisecond)
	require.NotContains(t, buf.String(), "hidden")
}

func TestFormatLog(t *testing.T) {
	cases := []struct {
		input    Log
		expected string
	}{
		{Log{Level: LevelWarning, Msg: "a"}, "[WARNING] a"},
		{Log{Level: LevelDebug, Src: "x", Msg: "b"}, "[DEBUG] X: b"},
		{Log{Level: LevelError, File: "f.pag", Msg: "c"}, "[ERROR] f.pag: c"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, formatLog(tc.input))
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error":   LevelError,
		"warning": LevelWarning,
		"INFO":    LevelInfo,
		"Debug":   LevelDebug,
	}
	for input, expected := range cases {
		level, err := ParseLevel(input)
		require.NoError(t, err)
		require.Equal(t, expected, level)
	}

	_, err := ParseLevel("verbose")
	require.ErrorIs(t, err, ErrInvalidLevel)
}
