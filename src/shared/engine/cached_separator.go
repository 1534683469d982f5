package engine

import (
	"context"

	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/shared/stemcache"

	"github.com/apex/log"
)

var _ Separator = CachedSeparator{}

func NewCachedSeparator(cache stemcache.Cache, separator Separator) CachedSeparator {
	return CachedSeparator{
		cache:     cache,
		separator: separator,
	}
}

// CachedSeparator consults the stem cache before deferring to the real
// separation engine. Fresh results are copied into the cache so that
// repeat requests for the same file and model skip separation entirely.
type CachedSeparator struct {
	cache     stemcache.Cache
	separator Separator
}

func (c CachedSeparator) SeparateFile(ctx context.Context, inputFilePath string, stemsOutputDir string, modelID string, device string) (stem.FilePaths, error) {
	errctx := cerr.Fields(cerr.F{
		"input_filepath": inputFilePath,
		"model_id":       modelID,
	})

	cachedPaths, found, err := c.cache.Lookup(inputFilePath, modelID)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to look up the stem cache")
	}

	if found {
		log.WithFields(log.Fields{
			"inputFilePath": inputFilePath,
			"modelID":       modelID,
		}).Info("Reusing cached stems")

		return cachedPaths, nil
	}

	stemPaths, err := c.separator.SeparateFile(ctx, inputFilePath, stemsOutputDir, modelID, device)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to separate the file")
	}

	cachedPaths, err = c.cache.Store(inputFilePath, modelID, stemPaths)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to store separated stems in the cache")
	}

	return cachedPaths, nil
}
