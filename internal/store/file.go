package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/i474232898/historical-risk-explorer/internal/log"
	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

const fileExt = ".msgpack"

// entry is the on-disk layout of a cached series.
type entry struct {
	Dates    []string   `msgpack:"dates"`
	Values   []*float64 `msgpack:"values"`
	Variable string     `msgpack:"variable"`
	Unit     string     `msgpack:"unit"`
}

// FileStore keeps one msgpack file per cache key in a directory.
// Entries never expire. Writes go to a temp file that is renamed into place,
// so concurrent writers to one key leave the last complete write.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Load returns the cached series. Missing, unreadable and corrupt files read as absent.
func (s *FileStore) Load(loc weather.Location, variable, date, source string) (weather.TimeSeries, bool) {
	path := s.path(Key(loc, variable, date, source))

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnw("unreadable cache file", "path", path, "error", err)
		}
		return weather.TimeSeries{}, false
	}

	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		log.Warnw("corrupt cache file", "path", path, "error", err)
		return weather.TimeSeries{}, false
	}
	if len(e.Dates) == 0 || len(e.Dates) != len(e.Values) {
		log.Warnw("inconsistent cache file", "path", path, "dates", len(e.Dates), "values", len(e.Values))
		return weather.TimeSeries{}, false
	}

	return weather.TimeSeries{
		Dates:    e.Dates,
		Values:   e.Values,
		Variable: e.Variable,
		Unit:     e.Unit,
		Source:   weather.SourceCache,
	}, true
}

// Save writes the series, replacing any existing entry for the key.
func (s *FileStore) Save(loc weather.Location, variable, date string, series weather.TimeSeries, source string) error {
	if len(series.Dates) != len(series.Values) {
		return fmt.Errorf("series has %d dates and %d values", len(series.Dates), len(series.Values))
	}

	data, err := msgpack.Marshal(entry{
		Dates:    series.Dates,
		Values:   series.Values,
		Variable: series.Variable,
		Unit:     series.Unit,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache entry: %w", err)
	}

	if err := os.Rename(tmpName, s.path(Key(loc, variable, date, source))); err != nil {
		return fmt.Errorf("replace cache entry: %w", err)
	}
	return nil
}
