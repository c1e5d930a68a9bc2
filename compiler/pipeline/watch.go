package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs the pipeline whenever a unit descriptor changes.
// Generation is idempotent against unmodified input, so spurious events
// cost one no-op run at worst. Watch blocks until ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context, unitPaths []string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, path := range unitPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	if _, err := p.Run(ctx, unitPaths); err != nil {
		p.log.Error("generation failed", "error", err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("watch error", "error", err)
		case <-timer.C:
			pending = false
			if _, err := p.Run(ctx, unitPaths); err != nil {
				p.log.Error("generation failed", "error", err)
			}
		}
	}
}
