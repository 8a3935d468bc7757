package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/models"
)

var badHeader = []string{"identifier", "company_name", "reason", "recorded_at"}

// FileStore keeps each fetched parent's edges as {identifier}_{collection}.json
// and appends bad identifiers to bad_ticker_{collection}.csv, all under one directory.
type FileStore struct {
	dir string
	log *logrus.Logger

	mu sync.Mutex // serialises CSV appends
}

// OpenFileStore creates dir if needed and returns a FileStore rooted there.
func OpenFileStore(dir string, log *logrus.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	return &FileStore{dir: dir, log: log}, nil
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) edgePath(collection, parentID string) string {
	return filepath.Join(s.dir, url.PathEscape(parentID)+"_"+collection+".json")
}

func (s *FileStore) badPath(collection string) string {
	return filepath.Join(s.dir, "bad_ticker_"+collection+".csv")
}

// LoadAll reads every {identifier}_{collection}.json document in the directory,
// keeping only edges stamped with collection.
func (s *FileStore) LoadAll(ctx context.Context, collection string) ([]models.Edge, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, errors.Join(models.ErrStoreUnavailable, err))
	}

	suffix := "_" + collection + ".json"

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), suffix) && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	var edges []models.Edge

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := readBatch(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}

		// P_OTHER_VCHAINS.json also ends in _VCHAINS.json.
		for _, e := range batch {
			if e.Collection == collection {
				edges = append(edges, e)
			}
		}
	}

	return edges, nil
}

func readBatch(path string) ([]models.Edge, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the store directory listing.
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var batch []models.Edge
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return batch, nil
}

// LoadBad reads the collection's bad identifier CSV. A missing file means no records.
func (s *FileStore) LoadBad(_ context.Context, collection string) ([]models.BadIdentifier, error) {
	f, err := os.Open(s.badPath(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening bad identifiers: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []models.BadIdentifier

	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading bad identifiers: %w", err)
		}

		if line == 1 && len(rec) > 0 && rec[0] == badHeader[0] {
			continue
		}

		b, err := parseBadRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("bad identifiers line %d: %w", line, err)
		}

		out = append(out, b)
	}

	return out, nil
}

// parseBadRecord accepts the full four-column form and the legacy
// "identifier,reason" form.
func parseBadRecord(rec []string) (models.BadIdentifier, error) {
	var b models.BadIdentifier

	switch len(rec) {
	case 2:
		b.Identifier = rec[0]
		reason, err := models.ParseReason(rec[1])
		if err != nil {
			return b, err
		}
		b.Reason = reason
	case 4:
		b.Identifier, b.CompanyName = rec[0], rec[1]
		reason, err := models.ParseReason(rec[2])
		if err != nil {
			return b, err
		}
		b.Reason = reason

		if rec[3] != "" {
			t, err := time.Parse(time.RFC3339Nano, rec[3])
			if err != nil {
				return b, fmt.Errorf("parsing recorded_at: %w", err)
			}
			b.RecordedAt = t.UTC()
		}
	default:
		return b, fmt.Errorf("expected 2 or 4 fields, got %d", len(rec))
	}

	return b, nil
}

// Exists reports whether the parent's document exists.
func (s *FileStore) Exists(_ context.Context, collection, parentID string) (bool, error) {
	_, err := os.Stat(s.edgePath(collection, parentID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("checking parent %q: %w", parentID, err)
}

// InsertBatch writes the batch to a temp file and hard-links it into place,
// so the document appears complete or not at all and an existing one is
// never overwritten.
func (s *FileStore) InsertBatch(_ context.Context, collection string, edges []models.Edge) (models.InsertResult, error) {
	batch, parent, err := prepareBatch(collection, edges)
	if err != nil {
		return models.InsertResult{}, err
	}

	final := s.edgePath(collection, parent)

	if _, err := os.Stat(final); err == nil {
		return models.InsertResult{Duplicate: true}, nil
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("encoding batch for %q: %w", parent, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".batch-*")
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // temp file is unlinked once linked or on failure.

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return models.InsertResult{}, fmt.Errorf("writing batch for %q: %w", parent, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return models.InsertResult{}, fmt.Errorf("syncing batch for %q: %w", parent, err)
	}

	if err := tmp.Close(); err != nil {
		return models.InsertResult{}, fmt.Errorf("closing batch for %q: %w", parent, err)
	}

	if err := os.Link(tmpName, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return models.InsertResult{Duplicate: true}, nil
		}

		return models.InsertResult{}, fmt.Errorf("publishing batch for %q: %w", parent, err)
	}

	return models.InsertResult{BatchID: batch[0].BatchID, Inserted: len(batch)}, nil
}

// InsertBad appends a record to the collection's CSV, writing the header for a new file.
func (s *FileStore) InsertBad(_ context.Context, collection string, bad models.BadIdentifier) error {
	if err := validateBad(&bad); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.badPath(collection), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("opening bad identifiers: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat bad identifiers: %w", err)
	}

	w := csv.NewWriter(f)

	if info.Size() == 0 {
		if err := w.Write(badHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	rec := []string{bad.Identifier, bad.CompanyName, string(bad.Reason), bad.RecordedAt.UTC().Format(time.RFC3339Nano)}
	if err := w.Write(rec); err != nil {
		return fmt.Errorf("writing bad identifier %q: %w", bad.Identifier, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing bad identifiers: %w", err)
	}

	return nil
}

// Ping checks the directory is still present.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return errors.Join(models.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", s.dir, models.ErrStoreUnavailable)
	}

	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
