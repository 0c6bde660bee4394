package damper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileSource watches a JSON or YAML document on disk as the saved state's
// source of truth. External edits to the file feed the bound AutoSaver,
// making the scheduler autosave file changes to a backend.
type FileSource struct {
	path string

	mu      sync.RWMutex
	current Snapshot
}

// NewFileSource creates a FileSource for the given file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Snapshot returns the last successfully loaded document.
func (f *FileSource) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Bind loads the file, then starts watching it; every write reloads the
// document and notifies the saver. The initial load error is returned;
// reload failures leave the previous document in place.
func (f *FileSource) Bind(ctx context.Context, saver *AutoSaver) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(f.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch file %s: %w", f.path, err)
	}

	if err := f.load(); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only reload on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if err := f.load(); err != nil {
					continue
				}
				saver.Touch()

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return nil
}

// load reads and parses the file. JSON is detected by a leading brace;
// anything else parses as YAML, which also accepts plain JSON.
func (f *FileSource) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var doc map[string]any
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.current = Snapshot(doc)
	f.mu.Unlock()
	return nil
}

// Ensure FileSource implements Source.
var _ Source = (*FileSource)(nil)
