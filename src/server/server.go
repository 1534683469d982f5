package main

import (
	"path"
	"strings"

	"github.com/PMosby/Stem-Visualizer/src/server/application"
	"github.com/PMosby/Stem-Visualizer/src/shared/config"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/dev"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/envvar"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/local"
	"github.com/PMosby/Stem-Visualizer/src/shared/config/prod"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/env"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet("ALLOWED_FE_ORIGINS")
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			RabbitMQURL:        envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName:  envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			CORSAllowedOrigins: allowedOrigins,
			Port:               ":5000",
			Log:                true,
			UploadDirPath:      envvar.MustGet(envvar.UPLOAD_WORKING_DIR_PATH),
			FFmpegBinPath:      envvar.MustGet(envvar.FFMPEG_BIN_PATH),
		}
	case env.Development:
		appConfig = application.Config{
			DynamoConfig:       dev.DynamoConfig,
			RabbitMQURL:        dev.RabbitMQHost,
			RabbitMQQueueName:  dev.RabbitMQQueueName,
			CORSAllowedOrigins: []string{"*"},
			Port:               ":5000",
			Log:                true,
			UploadDirPath:      path.Join(local.ProjectRoot(), "/src/server/wd/uploads"),
			FFmpegBinPath:      config.FFmpegPath(),
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
