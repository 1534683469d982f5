package main

import (
	"path"

	"github.com/PMosby/Stem-Visualizer/src/shared/config"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/dev"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/envvar"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/local"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/prod"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/env"
	"github.com/PMosby/Stem-Visualizer/src/worker/application"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:          envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName:    envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			DemucsBinPath:        envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			DemucsWorkingDirPath: envvar.MustGet(envvar.DEMUCS_WORKING_DIR_PATH),
			StemCacheDirPath:     envvar.MustGet(envvar.STEM_CACHE_DIR_PATH),
		}

	case env.Development:
		appConfig = application.Config{
			DynamoConfig: dev.DynamoConfig,
			// no cloud storage locally, stems are served from disk
			CloudStorageConfig:   nil,
			RabbitMQURL:          dev.RabbitMQHost,
			RabbitMQQueueName:    dev.RabbitMQQueueName,
			DemucsBinPath:        envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			DemucsWorkingDirPath: path.Join(local.ProjectRoot(), "/src/worker/wd/demucs"),
			StemCacheDirPath:     path.Join(local.ProjectRoot(), "/src/worker/wd/stem-cache"),
		}
	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
