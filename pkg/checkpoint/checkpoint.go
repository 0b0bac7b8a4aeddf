package checkpoint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"redirsync/pkg/logger"
)

// Operation names the three checkpointable run kinds
type Operation string

const (
	OpExports Operation = "exports"
	OpImports Operation = "imports"
	OpDeletes Operation = "deletes"
)

// DefaultPath is the well-known relative location of the metainfo file
const DefaultPath = ".redirsync.json"

// Entry is the resume state for one fingerprint. Counter is the next
// unprocessed batch index for imports/deletes, or the running row
// total for exports; Data carries operation-specific state such as the
// export cursor.
type Entry struct {
	Counter int               `json:"counter"`
	Data    map[string]string `json:"data"`
}

// Metainfo maps operation -> fingerprint -> resume state
type Metainfo map[Operation]map[string]Entry

// Store persists Metainfo to a single JSON file. One process owns one
// file for a run's lifetime; last completed save wins.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store bound to the given file path. An empty path
// uses DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:   path,
		logger: logger.GetLogger(),
	}
}

// Fingerprint derives the checkpoint key for one logical run from the
// account/workspace context, the input path, and optionally the file
// content, so unrelated files and runs never collide.
func Fingerprint(account, workspace, path string, content []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(account))
	h.Write([]byte{0})
	h.Write([]byte(workspace))
	h.Write([]byte{0})
	h.Write([]byte(path))
	if len(content) > 0 {
		h.Write([]byte{0})
		h.Write(content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Load reads the metainfo file. A missing or corrupt file yields an
// empty Metainfo, never an error: stale resume state is worth less
// than a working run.
func (s *Store) Load() Metainfo {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("checkpoint file unreadable, starting fresh")
		}
		return Metainfo{}
	}

	var meta Metainfo
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.WithError(err).Warn("checkpoint file corrupt, starting fresh")
		return Metainfo{}
	}
	if meta == nil {
		meta = Metainfo{}
	}
	return meta
}

// Lookup returns the entry for one operation/fingerprint pair
func (s *Store) Lookup(op Operation, fingerprint string) (Entry, bool) {
	entries, ok := s.Load()[op]
	if !ok {
		return Entry{}, false
	}
	entry, ok := entries[fingerprint]
	return entry, ok
}

// Save upserts the entry and synchronously rewrites the whole file,
// preserving other operations' entries. The write is atomic (temp file
// plus rename) so a crash right after Save never loses the checkpoint.
func (s *Store) Save(op Operation, fingerprint string, counter int, data map[string]string) error {
	meta := s.Load()
	if meta[op] == nil {
		meta[op] = make(map[string]Entry)
	}
	meta[op][fingerprint] = Entry{Counter: counter, Data: data}

	if err := s.persist(meta); err != nil {
		return err
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"operation":   string(op),
		"fingerprint": fingerprint,
		"counter":     counter,
	})
	return nil
}

// Clear removes just that entry if present and persists; clearing an
// absent entry is a no-op.
func (s *Store) Clear(op Operation, fingerprint string) error {
	meta := s.Load()
	entries, ok := meta[op]
	if !ok {
		return nil
	}
	if _, ok := entries[fingerprint]; !ok {
		return nil
	}

	delete(entries, fingerprint)
	if len(entries) == 0 {
		delete(meta, op)
	}

	if err := s.persist(meta); err != nil {
		return err
	}

	s.logger.DebugWithFields("checkpoint cleared", map[string]interface{}{
		"operation":   string(op),
		"fingerprint": fingerprint,
	})
	return nil
}

func (s *Store) persist(meta Metainfo) error {
	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(meta); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}
