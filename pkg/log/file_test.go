package log

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogToFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := &sync.WaitGroup{}
	logger := NewLogger(wg)
	logger.Start(ctx)

	path := filepath.Join(t.TempDir(), "pagkit.log")
	require.NoError(t, logger.LogToFile(ctx, path, LevelWarning))

	require.Eventually(t, func() bool {
		logger.Warn().Src("app").Msg("ready")
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "[WARNING] App: ready")
	}, 5*time.Second, 10*time.Millisecond)

	logger.Info().Msg("hidden")
	logger.Error().File("a.pag").Msg("failed")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.HasSuffix(string(data), "[ERROR] a.pag: failed\n")
	}, 5*time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden")

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	cancel()
	wg.Wait()
}
