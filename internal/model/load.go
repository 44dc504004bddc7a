package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/metrics"
)

// ErrNotFound is returned when the artifact file does not exist.
var ErrNotFound = errors.New("model artifact not found")

// LoadFile reads, decodes and validates an artifact. Files ending in
// .json are decoded as JSON, everything else as YAML. Unknown fields and
// multiple documents are rejected.
func LoadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	art, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return art, nil
}

// Parse decodes and validates artifact bytes. ext selects the decoder.
func Parse(data []byte, ext string) (*Artifact, error) {
	var (
		art Artifact
		err error
	)
	if strings.EqualFold(ext, ".json") {
		err = decodeJSON(data, &art)
	} else {
		err = decodeYAML(data, &art)
	}
	if err != nil {
		return nil, err
	}
	if err := art.Validate(); err != nil {
		return nil, err
	}
	return &art, nil
}

func decodeJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse json: multiple documents are not supported")
		}
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

func decodeYAML(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// Loader memoizes one artifact per path for the life of the process.
// Concurrent first callers trigger a single load; later callers get the
// cached artifact or the cached error. Safe for concurrent use.
type Loader struct {
	Logger  *zap.Logger
	Metrics *metrics.Registry

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once sync.Once
	art  *Artifact
	err  error
}

// NewLoader creates a loader.
func NewLoader(logger *zap.Logger, reg *metrics.Registry) *Loader {
	return &Loader{Logger: logger, Metrics: reg}
}

// Load returns the artifact at path, which must be of the given kind.
func (l *Loader) Load(path string, kind Kind) (*Artifact, error) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*entry)
	}
	e, ok := l.entries[path]
	if !ok {
		e = &entry{}
		l.entries[path] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		e.art, e.err = l.load(path, kind)
	})
	if e.err != nil {
		return nil, e.err
	}
	if e.art.Kind != kind {
		return nil, fmt.Errorf("%w: %s is a %q model, want %q", ErrInvalid, path, e.art.Kind, kind)
	}
	return e.art, nil
}

func (l *Loader) load(path string, kind Kind) (*Artifact, error) {
	log := logging.OrNop(l.Logger)

	art, err := LoadFile(path)
	switch {
	case errors.Is(err, ErrNotFound):
		l.Metrics.ModelLoad(string(kind), "missing")
		log.Info("model artifact not found", zap.String("path", path), zap.String("kind", string(kind)))
		return nil, err
	case err != nil:
		l.Metrics.ModelLoad(string(kind), "invalid")
		log.Warn("model artifact rejected", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	l.Metrics.ModelLoad(string(kind), "ok")
	log.Info("model artifact loaded",
		zap.String("path", path),
		zap.String("kind", string(art.Kind)),
		zap.String("input", string(art.Input)),
		zap.String("format_version", art.FormatVersion),
	)
	return art, nil
}
