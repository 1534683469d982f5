package dummy

import (
	"context"
	"sync"

	shareddummy "github.com/PMosby/Stem-Visualizer/src/shared/testing/dummy"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/cloud_storage/entity"
)

var _ entity.FileStore = &FileStore{}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		State:       make(map[string][]byte),
	}
}

type FileStore struct {
	Unavailable bool
	State       map[string][]byte
	mutex       sync.RWMutex
}

func (f *FileStore) GetFile(ctx context.Context, url string) ([]byte, error) {
	if f.Unavailable {
		return nil, shareddummy.NetworkFailure
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	contents, ok := f.State[url]
	if !ok {
		return nil, shareddummy.NotFound
	}

	return contents, nil
}

func (f *FileStore) WriteFile(ctx context.Context, url string, fileContent []byte) error {
	if f.Unavailable {
		return shareddummy.NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.State[url] = fileContent
	return nil
}
