// Package jsonfile persists named collections of JSON records, one array
// document per collection, under a single directory.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
	fileExt              = ".json"
)

var validName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Store owns the on-disk representation of every collection in its directory.
// Writers to the same collection are serialized; readers never take the lock
// and only ever observe whole files because writes replace the file by rename.
type Store struct {
	dir         string
	lockTimeout time.Duration
	pretty      bool
	logg        *logger.Logger
	metrics     *metrics.StorageMetrics

	mu       sync.Mutex
	locks    map[string]*semaphore.Weighted
	reserved map[string]int
}

// New creates the storage directory when missing and returns a ready store.
func New(cfg config.StorageConfig, logg *logger.Logger, m *metrics.StorageMetrics) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if cfg.LockTimeout <= 0 {
		return nil, fmt.Errorf("storage lock timeout must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{
		dir:         cfg.Dir,
		lockTimeout: cfg.LockTimeout,
		pretty:      cfg.Pretty,
		logg:        logg,
		metrics:     m,
		locks:       map[string]*semaphore.Weighted{},
		reserved:    map[string]int{},
	}, nil
}

// Dir returns the directory holding the collection files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the backing file for a collection.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// ReadRaw returns the records of a collection without taking its lock.
// A missing file reads as empty; so does a file that is not a JSON array.
func (s *Store) ReadRaw(ctx context.Context, name string) ([]json.RawMessage, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return s.read(ctx, name)
}

// WriteRaw replaces the whole collection.
func (s *Store) WriteRaw(ctx context.Context, name string, records []json.RawMessage) error {
	if err := validateName(name); err != nil {
		return err
	}
	return s.WithLock(ctx, name, func() error {
		return s.write(name, records)
	})
}

// NextID allocates an identifier for the collection: 1 when it is empty,
// otherwise one past the highest id on disk or previously allocated.
// Allocation happens under the collection lock, so concurrent callers
// always receive distinct ids even before any of them writes.
func (s *Store) NextID(ctx context.Context, name string) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	var id int
	err := s.WithLock(ctx, name, func() error {
		records, err := s.read(ctx, name)
		if err != nil {
			return err
		}
		id = s.allocate(name, maxRawID(records))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// WithLock runs fn while holding the collection's writer lock. Waiting for the
// lock is bounded by the configured timeout and by ctx.
func (s *Store) WithLock(ctx context.Context, name string, fn func() error) error {
	release, err := s.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Ping checks that the storage directory accepts new files.
func (s *Store) Ping(ctx context.Context) error {
	probe, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageIO, err, "storage dir not writable")
	}
	name := probe.Name()
	return multierr.Combine(probe.Close(), os.Remove(name))
}

func (s *Store) acquire(ctx context.Context, name string) (func(), error) {
	sem := s.semaphoreFor(name)

	waitCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	if err := sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, ctxErr, fmt.Sprintf("acquire collection %s", name))
		}
		s.metrics.IncLockTimeout(name)
		s.logg.Warn(s.logg.WithField(s.logg.WithCollection(ctx, name), "lock_timeout_ms", s.lockTimeout.Milliseconds()), "storage.lock.timeout")
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageBusy, err, fmt.Sprintf("collection %s is busy", name))
	}
	return func() { sem.Release(1) }, nil
}

func (s *Store) semaphoreFor(name string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.locks[name]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.locks[name] = sem
	}
	return sem
}

// allocate must be called with the collection lock held.
func (s *Store) allocate(name string, maxOnDisk int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := maxOnDisk
	if reserved := s.reserved[name]; reserved > next {
		next = reserved
	}
	next++
	s.reserved[name] = next
	return next
}

func (s *Store) read(ctx context.Context, name string) ([]json.RawMessage, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(name, "read", time.Since(start)) }()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []json.RawMessage{}, nil
		}
		s.metrics.IncFailure(name, "read")
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageIO, err, fmt.Sprintf("read collection %s", name))
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		s.metrics.IncCorruptRead(name)
		s.logg.Warn(s.logg.WithFields(s.logg.WithCollection(ctx, name), map[string]any{
			"error": err.Error(),
			"bytes": len(data),
		}), "storage.read.corrupt")
		return []json.RawMessage{}, nil
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// write must be called with the collection lock held.
func (s *Store) write(name string, records []json.RawMessage) error {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(name, "write", time.Since(start)) }()

	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := s.encode(records)
	if err != nil {
		s.metrics.IncFailure(name, "write")
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode collection %s", name))
	}
	if err := s.replaceFile(name, data); err != nil {
		s.metrics.IncFailure(name, "write")
		return pkgerrors.Wrap(pkgerrors.CodeStorageIO, err, fmt.Sprintf("write collection %s", name))
	}
	return nil
}

func (s *Store) encode(records []json.RawMessage) ([]byte, error) {
	if !s.pretty {
		return json.Marshal(records)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replaceFile writes data next to the target and renames it into place.
func (s *Store) replaceFile(name string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				err = multierr.Append(err, rmErr)
			}
		}
	}()

	_, writeErr := tmp.Write(data)
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if err = multierr.Append(writeErr, tmp.Close()); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path(name))
}

func validateName(name string) error {
	if !validName.MatchString(name) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid collection name %q", name))
	}
	return nil
}

type idProbe struct {
	ID json.RawMessage `json:"id"`
}

func rawID(record json.RawMessage) (int, bool) {
	var probe idProbe
	if err := json.Unmarshal(record, &probe); err != nil {
		return 0, false
	}
	id, err := types.DecodeInt(probe.ID)
	if err != nil {
		return 0, false
	}
	return id, true
}

func maxRawID(records []json.RawMessage) int {
	highest := 0
	for _, record := range records {
		if id, ok := rawID(record); ok && id > highest {
			highest = id
		}
	}
	return highest
}
