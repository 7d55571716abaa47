package zefania

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/bible"
	"github.com/openscripture/zefbible/internal/hash/sha256"
)

// FileWriter saves assembled documents to an output directory, named by the
// version's abbreviation.
type FileWriter struct {
	dir    string
	hasher *sha256.Hasher
	logger *zap.Logger
}

// NewFileWriter returns a writer rooted at dir, creating it if needed.
func NewFileWriter(dir string, logger *zap.Logger) (*FileWriter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWriter{
		dir:    dir,
		hasher: sha256.New(),
		logger: logger,
	}, nil
}

// Write stores the document as {abbreviation}.xml under the output
// directory and returns the path.
func (w *FileWriter) Write(ctx context.Context, version bible.Version, doc []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if len(doc) == 0 {
		return "", fmt.Errorf("empty document")
	}

	name := sanitizeFileName(version.Abbreviation)
	if name == "" {
		name = sanitizeFileName(version.ID)
	}
	if name == "" {
		return "", fmt.Errorf("version has no usable abbreviation or id")
	}

	path := filepath.Join(w.dir, name+".xml")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write document %s: %w", path, err)
	}

	digest, err := w.hasher.Hash(doc)
	if err != nil {
		digest = "unavailable"
	}
	w.logger.Info("wrote document",
		zap.String("path", path),
		zap.Int("bytes", len(doc)),
		zap.String("sha256", digest),
	)
	return path, nil
}

// sanitizeFileName strips path separators and other characters that have no
// business in a file name.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BufferWriter keeps documents in memory. It exists for tests and dry runs.
type BufferWriter struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewBufferWriter returns an empty BufferWriter.
func NewBufferWriter() *BufferWriter {
	return &BufferWriter{docs: make(map[string][]byte)}
}

// Write records the document under the version's abbreviation.
func (w *BufferWriter) Write(_ context.Context, version bible.Version, doc []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	name := sanitizeFileName(version.Abbreviation) + ".xml"
	w.docs[name] = append([]byte(nil), doc...)
	return name, nil
}

// Document returns the stored document for the given name.
func (w *BufferWriter) Document(name string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[name]
	return doc, ok
}

// Len reports how many documents have been written.
func (w *BufferWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.docs)
}
