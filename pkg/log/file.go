package log

import (
	"context"
	"fmt"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// File rotation.
const (
	RotationTime = 24 * time.Hour
	MaxAge       = 7 * 24 * time.Hour
)

// LogToFile writes every log at or below maxLevel to a daily rotated
// file. path always links to the current file. The file is closed when
// ctx is canceled.
func (l *Logger) LogToFile(ctx context.Context, path string, maxLevel Level) error {
	w, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(RotationTime),
		rotatelogs.WithMaxAge(MaxAge),
	)
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer w.Close()
		l.LogToWriter(ctx, w, maxLevel)
	}()
	return nil
}
