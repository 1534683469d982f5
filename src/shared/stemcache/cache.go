// Package stemcache stores separation results on disk, keyed by the
// input file's identity and the model that produced the stems. A second
// request for the same upload and model reuses the cached stems instead
// of rerunning separation.
package stemcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/pkg/errors"
)

const keyLength = 32

type Cache struct {
	rootDirPath string
}

// NewCache creates the cache root directory if it doesn't exist yet.
func NewCache(rootDirPath string) (Cache, error) {
	absPath, err := filepath.Abs(rootDirPath)
	if err != nil {
		return Cache{}, errors.Wrap(err, "Failed to resolve cache directory path")
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		return Cache{}, errors.Wrap(err, "Failed to create cache directory")
	}

	return Cache{rootDirPath: absPath}, nil
}

// Key derives the cache key for an input file and model. The key hashes
// the file's basename and byte size rather than its contents, so lookup
// stays cheap for large uploads. Renaming a file or picking a different
// model yields a different key.
func (c Cache) Key(inputFilePath string, modelID string) (string, error) {
	fileInfo, err := os.Stat(inputFilePath)
	if err != nil {
		return "", errors.Wrap(err, "Failed to stat input file for cache key")
	}

	identity := fmt.Sprintf("%s|%d|%s", filepath.Base(inputFilePath), fileInfo.Size(), modelID)
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])[:keyLength], nil
}

// Lookup returns the cached stem files for this input and model. An
// entry holding any subset of the expected stems counts as a hit and
// returns whichever stems are present; only an empty or missing entry
// is a miss.
func (c Cache) Lookup(inputFilePath string, modelID string) (stem.FilePaths, bool, error) {
	key, err := c.Key(inputFilePath, modelID)
	if err != nil {
		return nil, false, errors.Wrap(err, "Failed to compute cache key")
	}

	entryDirPath := filepath.Join(c.rootDirPath, key)
	if _, err := os.Stat(entryDirPath); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "Failed to stat cache entry directory")
	}

	stemPaths := stem.FilePaths{}
	for _, stemName := range stem.Names {
		stemFilePath := filepath.Join(entryDirPath, stemName+".wav")
		if _, err := os.Stat(stemFilePath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, false, errors.Wrap(err, "Failed to stat cached stem file")
		}
		stemPaths[stemName] = stemFilePath
	}

	if len(stemPaths) == 0 {
		return nil, false, nil
	}

	return stemPaths, true, nil
}

// Store copies a set of freshly separated stems into the cache and
// returns the paths of the cached copies. An existing entry for the same
// key is overwritten.
func (c Cache) Store(inputFilePath string, modelID string, stemPaths stem.FilePaths) (stem.FilePaths, error) {
	key, err := c.Key(inputFilePath, modelID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to compute cache key")
	}

	entryDirPath := filepath.Join(c.rootDirPath, key)
	if err := os.MkdirAll(entryDirPath, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "Failed to create cache entry directory")
	}

	cachedPaths := stem.FilePaths{}
	for stemName, sourcePath := range stemPaths {
		destPath := filepath.Join(entryDirPath, stemName+".wav")
		if err := copyFile(sourcePath, destPath); err != nil {
			return nil, errors.Wrap(err, "Failed to copy stem file into cache")
		}
		cachedPaths[stemName] = destPath
	}

	return cachedPaths, nil
}

func copyFile(sourcePath string, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return errors.Wrap(err, "Failed to open source file")
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return errors.Wrap(err, "Failed to create destination file")
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return errors.Wrap(err, "Failed to copy file contents")
	}

	return nil
}
