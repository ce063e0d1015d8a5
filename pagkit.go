// Copyright 2020-2022 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pagkit

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"pagkit/pkg/codec"
	"pagkit/pkg/log"
	"pagkit/pkg/scene"
	"pagkit/pkg/storage"
	"pagkit/pkg/system"
	"pagkit/pkg/video/mp4muxer"
)

// ErrConvert some input files could not be converted.
var ErrConvert = errors.New("conversion failed")

// Run .
func Run() error {
	envFlag := flag.String("env", "", "path to env.yaml")
	flag.Parse()

	if *envFlag == "" || flag.NArg() == 0 {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: pagkit -env env.yaml file.pag...")
		flag.Usage()
		return nil
	}

	envPath, err := filepath.Abs(*envFlag)
	if err != nil {
		return fmt.Errorf("could not get absolute path of env.yaml: %w", err)
	}

	wg := &sync.WaitGroup{}
	app, err := newApp(envPath, wg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.run(ctx, flag.Args()) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-done:
	case signal := <-stop:
		app.Logger.Info().Msg("") // New line.
		app.Logger.Info().Src("app").Msgf("received %v, stopping", signal)
	}

	// Let the log feed drain.
	time.Sleep(10 * time.Millisecond)

	cancel()
	wg.Wait()
	return err
}

func newApp(envPath string, wg *sync.WaitGroup) (*App, error) {
	envYAML, err := os.ReadFile(envPath)
	if err != nil {
		return nil, fmt.Errorf("could not read env.yaml: %w", err)
	}

	env, err := storage.NewConfigEnv(envPath, envYAML)
	if err != nil {
		return nil, fmt.Errorf("could not get environment config: %w", err)
	}

	logger := log.NewLogger(wg)

	return &App{
		WG:     wg,
		Logger: logger,
		logDB:  log.NewDB(env.LogDBPath(), wg),
		Env:    *env,
		Cache:  storage.NewCache(env, logger, wg),
		ids:    &scene.Counter{},
		system: system.New(env.StorageDir),
	}, nil
}

// App is the main application struct.
type App struct {
	WG     *sync.WaitGroup
	Logger *log.Logger
	logDB  *log.DB
	Env    storage.ConfigEnv

	// Cache is nil when disabled.
	Cache  *storage.Cache
	ids    scene.IDSource
	system *system.System
}

func (app *App) run(ctx context.Context, paths []string) error {
	if err := app.Env.PrepareEnvironment(); err != nil {
		return fmt.Errorf("could not prepare environment: %w", err)
	}

	app.Logger.Start(ctx)
	go app.Logger.LogToStdout(ctx, app.Env.Level())

	if app.Env.LogFile != "" {
		if err := app.Logger.LogToFile(ctx, app.Env.LogFile, app.Env.Level()); err != nil {
			app.Logger.Error().Src("app").Msgf("%v", err)
		}
	}

	if err := app.logDB.Init(ctx); err != nil {
		// Continue even if log database is corrupt.
		app.Logger.Error().Src("app").Msgf("could not initialize log database: %v", err)
	} else {
		go app.logDB.SaveLogs(ctx, app.Logger)
		time.Sleep(10 * time.Millisecond)
	}

	if app.Env.CacheBytes() == 0 {
		app.Cache = nil
	} else if err := app.Cache.Open(ctx); err != nil {
		app.Logger.Warn().Src("cache").Msgf("cache disabled: %v", err)
		app.Cache = nil
	}

	var failed int
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := app.ConvertFile(path); err != nil {
			app.Logger.Error().Src("app").File(path).Msgf("%v", err)
			failed++
		}
	}

	if status, err := app.system.Status(ctx); err != nil {
		app.Logger.Debug().Src("app").Msgf("%v", err)
	} else {
		app.Logger.Debug().Src("app").Msgf("system: %v", status)
	}

	if app.Cache != nil {
		if usage, err := app.Cache.Usage(); err == nil {
			app.Logger.Debug().Src("cache").
				Msgf("%d entries, %v", usage.Entries, usage.Formatted)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrConvert, failed, len(paths))
	}
	return nil
}

// ConvertFile decodes the animation at path, reports its contents and
// writes every embedded video sequence to the output directory.
func (app *App) ConvertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	f, err := codec.Decode(data, codec.WithIDSource(app.ids))
	if err != nil {
		return err
	}

	app.Logger.Info().Src("decoder").File(path).Msgf(
		"%dx%d, %d frames at %vfps, %d layers, %d videos",
		f.Width(), f.Height(), f.Duration(), f.FrameRate(), f.NumLayers(), f.NumVideos(),
	)
	if main := f.MainComposition(); main != nil {
		app.Logger.Debug().Src("decoder").File(path).
			Msgf("static time ranges: %v", main.StaticTimeRanges())
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return app.writeSequences(path, base, f.VideoSequences())
}

func (app *App) writeSequences(path, base string, seqs []*scene.VideoSequence) error {
	for i, seq := range seqs {
		name := filepath.Join(app.Env.OutputDir, fmt.Sprintf("%s_%d", base, i))

		buf, err := app.Mux(seq)
		if err != nil {
			return fmt.Errorf("sequence %d: %w", i, err)
		}
		if err := os.WriteFile(name+".mp4", buf, 0o600); err != nil {
			return fmt.Errorf("write video: %w", err)
		}

		err = writeThumbnail(name+"_thumb.mp4", seq)
		if errors.Is(err, mp4muxer.ErrNotKeyframe) {
			app.Logger.Warn().Src("muxer").File(path).Msgf("sequence %d: no thumbnail: %v", i, err)
		} else if err != nil {
			return fmt.Errorf("sequence %d: thumbnail: %w", i, err)
		}

		app.Logger.Info().Src("muxer").File(path).
			Msgf("wrote %v, %d frames", filepath.Base(name+".mp4"), len(seq.Frames))
	}
	return nil
}

func writeThumbnail(path string, seq *scene.VideoSequence) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := mp4muxer.Thumbnail(file, seq); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

// Mux returns the mp4 file for seq, looped if configured, from the
// cache when possible.
func (app *App) Mux(seq *scene.VideoSequence) ([]byte, error) {
	var key storage.Key
	if app.Cache != nil {
		key = storage.SequenceKey(seq, app.Env.Loop)
		buf, found, err := app.Cache.Get(key)
		if err != nil {
			app.Logger.Warn().Src("cache").Msgf("get: %v", err)
		} else if found {
			app.Logger.Debug().Src("cache").Msgf("hit %v", key)
			return buf, nil
		}
	}

	muxed := seq
	if app.Env.Loop {
		muxed = mp4muxer.LoopSequence(seq)
	}
	buf, err := mp4muxer.Mux(muxed)
	if err != nil {
		return nil, err
	}

	if app.Cache != nil {
		if err := app.Cache.Put(key, buf); err != nil {
			app.Logger.Warn().Src("cache").Msgf("put: %v", err)
		}
	}
	return buf, nil
}
