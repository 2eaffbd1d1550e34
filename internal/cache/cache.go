// Package cache provides localized filesystem-based caching for container probe results.
//
// Probing a large 4K/8K container is expensive, so probe output is cached keyed by
// the file's identity (path, size, modification time); any change to the file
// invalidates the entry naturally.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/kinoray-player/kinoray/filesystem"
	"github.com/kinoray-player/kinoray/where"
)

const TTL = 7 * 24 * time.Hour

// GenerateKey generates a deterministic SHA-256 hash from a file's identity for use as a cache identifier.
func GenerateKey(path string, size int64, mtime time.Time) string {
	id := fmt.Sprintf("%s|%d|%d", path, size, mtime.UnixNano())
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:])
}

// Read attempts to retrieve and deserialize a cached object if it exists and has not exceeded its TTL.
func Read(key string, target interface{}) bool {
	path := filepath.Join(where.MediaCache(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	return decoder.Decode(target) == nil
}

// Write persists a serializable object to the cache using an atomic file swap to ensure data integrity.
func Write(key string, data interface{}) error {
	path := filepath.Join(where.MediaCache(), key)
	tmpPath := path + ".tmp"

	f, err := filesystem.API().Create(tmpPath)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(data); err != nil {
		f.Close()
		return err
	}
	f.Close()

	return filesystem.API().Rename(tmpPath, path)
}

// CollectGarbage prunes expired cache entries from the filesystem.
func CollectGarbage() {
	dir := where.MediaCache()
	_ = filesystem.API().Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL {
			_ = filesystem.API().Remove(path)
		}
		return nil
	})
}
