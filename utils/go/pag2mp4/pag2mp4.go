// Package pag2mp4 is a CLI utility that extracts the videos embedded in
// animation files into mp4 files.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"pagkit/pkg/codec"
	"pagkit/pkg/video/mp4muxer"

	"github.com/panjf2000/ants/v2"
)

const usage = `extract embedded videos from animation files into mp4 files
example: pag2mp4 ./animations`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	args := os.Args
	if len(args) != 2 {
		fmt.Println(usage)
		return nil
	}

	files, err := findFiles(args[1])
	if err != nil {
		return err
	}

	nFiles := len(files)
	fmt.Printf("Found %v new files.\n", nFiles)

	chResults := make(chan result, nFiles)
	pool, err := ants.NewPoolWithFunc(runtime.NumCPU(), func(arg interface{}) {
		file := arg.(string)
		n, err := convert(file)
		chResults <- result{file: file, videos: n, err: err}
	})
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Release()

	for _, file := range files {
		if err := pool.Invoke(file); err != nil {
			chResults <- result{file: file, err: err}
		}
	}

	for i := 1; i <= nFiles; i++ {
		result := <-chResults
		fmt.Printf("[%v/%v]", i, nFiles)
		if result.err != nil {
			fmt.Printf("[ERR] %v %v\n", result.file, result.err)
			continue
		}
		fmt.Printf("[OK] %v %v videos\n", result.file, result.videos)
	}
	return nil
}

// findFiles returns the animation files below root without a first
// output file next to them.
func findFiles(root string) ([]string, error) {
	var files []string
	walkFunc := func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%v %w", path, err)
		}
		if info.IsDir() || filepath.Ext(path) != ".pag" {
			return nil
		}

		_, err = os.Stat(outputPath(path, 0))
		if !errors.Is(err, os.ErrNotExist) {
			return nil
		}

		files = append(files, path)
		return nil
	}
	if err := filepath.WalkDir(root, walkFunc); err != nil {
		return nil, err
	}
	return files, nil
}

func outputPath(file string, i int) string {
	return fmt.Sprintf("%s_%d.mp4", strings.TrimSuffix(file, ".pag"), i)
}

type result struct {
	file   string
	videos int
	err    error
}

func convert(file string) (int, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	f, err := codec.Decode(data)
	if err != nil {
		return 0, err
	}

	seqs := f.VideoSequences()
	for i, seq := range seqs {
		buf, err := mp4muxer.Mux(seq)
		if err != nil {
			return i, fmt.Errorf("sequence %d: %w", i, err)
		}
		if err := os.WriteFile(outputPath(file, i), buf, 0o644); err != nil {
			return i, fmt.Errorf("write file: %w", err)
		}
	}
	return len(seqs), nil
}
