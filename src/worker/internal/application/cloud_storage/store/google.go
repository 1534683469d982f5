package store

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/cloud_storage/entity"
	"google.golang.org/api/option"
)

var _ entity.FileStore = GoogleFileStore{}

func NewGoogleFileStore(storageHost string, options ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), options...)
	if err != nil {
		return GoogleFileStore{}, cerr.Wrap(err).Error("Failed to create Google Cloud Storage client")
	}

	return GoogleFileStore{
		storageHost: storageHost,
		client:      client,
	}, nil
}

type GoogleFileStore struct {
	storageHost string
	client      *storage.Client
}

func (g GoogleFileStore) GetFile(ctx context.Context, url string) ([]byte, error) {
	bucketName, objectPath, err := g.splitURL(url)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Failed to parse the file URL")
	}

	reader, err := g.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, cerr.Field("url", url).Wrap(err).Error("Failed to open a reader for the storage object")
	}
	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, cerr.Field("url", url).Wrap(err).Error("Failed to read the storage object")
	}

	return contents, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, url string, fileContent []byte) error {
	bucketName, objectPath, err := g.splitURL(url)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to parse the file URL")
	}

	writer := g.client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	if _, err := writer.Write(fileContent); err != nil {
		_ = writer.Close()
		return cerr.Field("url", url).Wrap(err).Error("Failed to write the storage object")
	}

	if err := writer.Close(); err != nil {
		return cerr.Field("url", url).Wrap(err).Error("Failed to finalize the storage object")
	}

	return nil
}

// splitURL breaks <host>/<bucket>/<object path> into its bucket and
// object components.
func (g GoogleFileStore) splitURL(url string) (string, string, error) {
	if !strings.HasPrefix(url, g.storageHost) {
		return "", "", cerr.Fields(cerr.F{
			"url":          url,
			"storage_host": g.storageHost,
		}).Error("URL doesn't belong to this storage host")
	}

	remainder := strings.TrimPrefix(url, g.storageHost)
	remainder = strings.TrimPrefix(remainder, "/")

	pieces := strings.SplitN(remainder, "/", 2)
	if len(pieces) != 2 || pieces[0] == "" || pieces[1] == "" {
		return "", "", cerr.Field("url", url).Error("URL doesn't contain a bucket and object path")
	}

	return pieces[0], pieces[1], nil
}
