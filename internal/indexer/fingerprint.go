package indexer

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/dshills/codetree/internal/storage"
)

// FingerprintKey returns a KeyFunc that extends storage.PathKey with a digest
// of the eligible files' relative paths, sizes and modification times.
// Adding, removing or touching a source file then yields a new key, so a
// stale table is never served. Content is not read.
func FingerprintKey(extensions []string) storage.KeyFunc {
	scanner := NewScanner(nil, &ScannerConfig{Extensions: extensions})

	return func(path string) (string, error) {
		base, err := storage.PathKey(path)
		if err != nil {
			return "", err
		}

		files, err := scanner.discoverFiles(path)
		if err != nil {
			return "", err
		}

		h := xxh3.New()
		var buf [8]byte
		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil {
				return "", fmt.Errorf("failed to stat %s: %w", file, err)
			}

			rel, err := filepath.Rel(path, file)
			if err != nil {
				rel = file
			}
			_, _ = h.WriteString(filepath.ToSlash(rel))
			_, _ = h.Write([]byte{0})
			binary.LittleEndian.PutUint64(buf[:], uint64(info.Size()))
			_, _ = h.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], uint64(info.ModTime().UnixNano()))
			_, _ = h.Write(buf[:])
		}

		return base[:32] + "-" + hex.EncodeToString(h.Sum(nil)), nil
	}
}
