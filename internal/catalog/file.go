package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gapless-controller/internal/playback"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads the catalog from a JSON file. The document is either an
// array of songs or an object with a "songs" array.
type FileSource struct {
	path string
	log  *slog.Logger
}

// NewFileSource returns a FileSource for path. log may be nil.
func NewFileSource(path string, log *slog.Logger) *FileSource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FileSource{path: path, log: log}
}

// Path returns the catalog file path.
func (f *FileSource) Path() string {
	return f.path
}

// Songs implements Source.Songs.
func (f *FileSource) Songs(context.Context) ([]playback.Interval, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.path, err)
	}
	songs, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", f.path, err)
	}
	return Normalize(songs), nil
}

func decode(data []byte) ([]playback.Interval, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var songs []playback.Interval
		if err := json.Unmarshal(data, &songs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		return songs, nil
	}
	var doc struct {
		Songs []playback.Interval `json:"songs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return doc.Songs, nil
}

// Watch reloads the catalog whenever the file is written, created or
// renamed into place, and passes each successfully decoded catalog to
// onChange. It watches the parent directory so editors that replace the
// file are seen. Watch blocks until ctx is done.
func (f *FileSource) Watch(ctx context.Context, onChange func([]playback.Interval)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(f.path)
	f.log.Info("watching catalog", slog.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			songs, err := f.Songs(ctx)
			if err != nil {
				f.log.Warn("catalog reload failed", slog.String("error", err.Error()))
				continue
			}
			f.log.Info("catalog reloaded", slog.Int("songs", len(songs)))
			onChange(songs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("catalog watcher error", slog.String("error", err.Error()))
		}
	}
}
