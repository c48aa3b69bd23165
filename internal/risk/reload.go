package risk

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/signalsfoundry/conjunction-screener/internal/logging"
	"github.com/signalsfoundry/conjunction-screener/model"
)

// Reloadable wraps a Predictor behind a swappable reference so watch
// mode can pick up a retrained artifact without restarting. Predict
// stays cheap: a read lock around a pointer load.
type Reloadable struct {
	mu      sync.RWMutex
	current Predictor
}

// NewReloadable wraps an initial predictor.
func NewReloadable(initial Predictor) *Reloadable {
	return &Reloadable{current: initial}
}

// Predict delegates to the current predictor.
func (r *Reloadable) Predict(features model.FeatureVector) (model.RiskCategory, float64, error) {
	r.mu.RLock()
	p := r.current
	r.mu.RUnlock()
	return p.Predict(features)
}

// Swap replaces the current predictor.
func (r *Reloadable) Swap(p Predictor) {
	r.mu.Lock()
	r.current = p
	r.mu.Unlock()
}

// Watch monitors the artifact at path and swaps in a freshly loaded
// forest each time the file is written. It runs until ctx is
// cancelled. A failed reload (truncated write, schema drift) is
// logged and the previous model stays active.
func (r *Reloadable) Watch(ctx context.Context, path string, log logging.Logger) error {
	if log == nil {
		log = logging.Noop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log.Info(ctx, "watching model artifact", logging.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors and trainers often replace the file via rename
			// (atomic save), so catch Create alongside Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			forest, err := LoadForest(path)
			if err != nil {
				log.Error(ctx, "model reload failed; keeping previous model",
					logging.String("path", path), logging.String("error", err.Error()))
				continue
			}

			r.Swap(forest)
			log.Info(ctx, "model artifact reloaded", logging.String("path", path))

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "model watcher error", logging.String("error", err.Error()))
		}
	}
}
