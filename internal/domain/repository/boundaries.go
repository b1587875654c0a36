package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"reporter_service/internal/domain/model"
)

// BoundaryRepository returns the area boundaries of a geography. Callers must not
// modify the returned collection; clone it first.
type BoundaryRepository interface {
	Boundaries(ctx context.Context, geog model.Geography) (*model.FeatureCollection, error)
}

// DefaultBoundaryFiles are the file names looked up in the boundary directory.
var DefaultBoundaryFiles = map[model.Geography]string{
	model.Wards: "chi_wards.geojson",
	model.Zips:  "chi_zips.geojson",
}

// FileBoundaryRepository loads GeoJSON boundary files once and keeps them in
// memory until the file changes.
type FileBoundaryRepository struct {
	dir    string
	files  map[model.Geography]string
	logger *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[model.Geography]*model.FeatureCollection
	// gen counts invalidations; a load only caches if it did not change meanwhile.
	gen map[model.Geography]uint64

	loaded func(model.Geography) // test hook, runs between decode and caching
}

func NewFileBoundaryRepository(dir string, files map[model.Geography]string, logger *zap.Logger) *FileBoundaryRepository {
	if files == nil {
		files = DefaultBoundaryFiles
	}
	return &FileBoundaryRepository{
		dir:    dir,
		files:  files,
		logger: logger,
		cache:  make(map[model.Geography]*model.FeatureCollection),
		gen:    make(map[model.Geography]uint64),
	}
}

func (r *FileBoundaryRepository) Boundaries(ctx context.Context, geog model.Geography) (*model.FeatureCollection, error) {
	r.mu.RLock()
	fc, ok := r.cache[geog]
	r.mu.RUnlock()
	if ok {
		return fc, nil
	}

	name, ok := r.files[geog]
	if !ok {
		return nil, model.NewValidationError("geog", "no boundary file for %q", geog)
	}

	v, err, _ := r.group.Do(string(geog), func() (interface{}, error) {
		r.mu.RLock()
		gen := r.gen[geog]
		r.mu.RUnlock()

		path := filepath.Join(r.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read boundaries: %w", err)
		}
		fc, err := model.DecodeFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("boundaries in %s: %w", path, err)
		}
		if r.loaded != nil {
			r.loaded(geog)
		}
		r.mu.Lock()
		if r.gen[geog] == gen {
			r.cache[geog] = fc
		}
		r.mu.Unlock()
		r.logger.Info("loaded boundaries", zap.String("geog", string(geog)), zap.Int("features", len(fc.Features)))
		return fc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.FeatureCollection), nil
}

// Invalidate drops the cached boundaries of geog.
func (r *FileBoundaryRepository) Invalidate(geog model.Geography) {
	r.mu.Lock()
	delete(r.cache, geog)
	r.gen[geog]++
	r.mu.Unlock()
}

// Watch invalidates cached boundaries whenever their file changes. It blocks until
// ctx is done.
func (r *FileBoundaryRepository) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.dir, err)
	}

	byName := make(map[string]model.Geography, len(r.files))
	for geog, name := range r.files {
		byName[name] = geog
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			geog, known := byName[filepath.Base(event.Name)]
			if !known || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			r.Invalidate(geog)
			r.logger.Info("boundary file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("boundary watcher error", zap.Error(err))
		}
	}
}
