package save_results

import (
	"context"
	"os"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/cloud_storage/entity"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/lib/storagepath"
)

// StemExporter copies separated stems somewhere the frontend can fetch
// them from, returning stem name to remote URL.
type StemExporter interface {
	ExportStems(ctx context.Context, sessionID string, stemPaths stem.FilePaths) (map[string]string, error)
}

var _ StemExporter = CloudStemExporter{}
var _ StemExporter = NoopStemExporter{}

func NewCloudStemExporter(fileStore entity.FileStore, pathGenerator storagepath.Generator) CloudStemExporter {
	return CloudStemExporter{
		fileStore:     fileStore,
		pathGenerator: pathGenerator,
	}
}

type CloudStemExporter struct {
	fileStore     entity.FileStore
	pathGenerator storagepath.Generator
}

func (c CloudStemExporter) ExportStems(ctx context.Context, sessionID string, stemPaths stem.FilePaths) (map[string]string, error) {
	remoteURLs := map[string]string{}

	for stemName, stemFilePath := range stemPaths {
		errctx := cerr.Fields(cerr.F{
			"session_id":     sessionID,
			"stem_name":      stemName,
			"stem_file_path": stemFilePath,
		})

		contents, err := os.ReadFile(stemFilePath)
		if err != nil {
			return nil, errctx.Wrap(err).Error("Failed to read the stem file")
		}

		remoteURL := c.pathGenerator.GeneratePath(sessionID, filepath.Base(stemFilePath))
		if err := c.fileStore.WriteFile(ctx, remoteURL, contents); err != nil {
			return nil, errctx.Field("remote_url", remoteURL).
				Wrap(err).Error("Failed to upload the stem file")
		}

		remoteURLs[stemName] = remoteURL
	}

	return remoteURLs, nil
}

// NoopStemExporter is used when no cloud storage is configured and stems
// are served straight from local disk.
type NoopStemExporter struct{}

func (NoopStemExporter) ExportStems(_ context.Context, _ string, _ stem.FilePaths) (map[string]string, error) {
	return nil, nil
}
