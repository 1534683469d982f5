package application

import (
	"os"

	"github.com/PMosby/Stem-Visualizer/src/shared/config"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/cerr"
	dynamolib "github.com/PMosby/Stem-Visualizer/src/shared/lib/dynamo"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/rabbitmq"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	sessionstorage "github.com/PMosby/Stem-Visualizer/src/shared/session/storage"
	"github.com/PMosby/Stem-Visualizer/src/shared/stemcache"
	filestore "github.com/PMosby/Stem-Visualizer/src/worker/internal/application/cloud_storage/store"
	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_router"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/save_results"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/separate"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/separate/separator"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/start"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/worker"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/lib/storagepath"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/working_dir"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	"github.com/rabbitmq/amqp091-go"
	"google.golang.org/api/option"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	worker worker.QueueWorker
}

type Config struct {
	RabbitMQURL       string
	RabbitMQQueueName string
	DynamoConfig      config.Dynamo

	// CloudStorageConfig may be nil, in which case stems are only kept
	// on local disk and never exported.
	CloudStorageConfig config.CloudStorage

	DemucsBinPath        string
	DemucsWorkingDirPath string
	StemCacheDirPath     string
}

func NewApp(config Config) App {
	consumerConn := must(amqp091.Dial(config.RabbitMQURL))

	return App{
		worker: newWorker(config, consumerConn),
	}
}

func (a *App) Start() error {
	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	a.worker.Stop()
}

func newWorker(config Config, consumerConn *amqp091.Connection) worker.QueueWorker {
	publisher := newPublisher(config)

	sessionStore := sessionstorage.NewDB(newDynamoDB(config.DynamoConfig))
	queueWorker := must(worker.NewQueueWorkerFromConnection(
		consumerConn,
		config.RabbitMQQueueName,
		newJobRouter(config, sessionStore, publisher)))

	return queueWorker
}

func newPublisher(config Config) *rabbitmq.QueuePublisher {
	return must(rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName))
}

func newDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	return dynamolib.DynamoDBWrapper{
		DB: dynamo.New(dbSession, dbConfig),
	}
}

func newGoogleFileStore(cloudStorageConfig config.CloudStorage) filestore.GoogleFileStore {
	switch t := cloudStorageConfig.(type) {
	case config.ProdCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithCredentialsJSON([]byte(t.SecretKey)),
		))

	case config.LocalCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		))

	default:
		panic("Unrecognized cloud storage config")
	}
}

func newJobRouter(config Config, sessionStore sessionentity.Store, publisher rabbitmq.Publisher) job_router.JobRouter {
	return job_router.NewJobRouter(
		sessionStore,
		publisher,
		newStartJobHandler(sessionStore),
		newSeparateJobHandler(config, sessionStore),
		newSaveResultsJobHandler(config, sessionStore))
}

func newStartJobHandler(sessionStore sessionentity.Store) start.JobHandler {
	return start.NewJobHandler(sessionStore)
}

func newSeparateJobHandler(config Config, sessionStore sessionentity.Store) separate.JobHandler {
	if err := os.MkdirAll(config.DemucsWorkingDirPath, os.ModePerm); err != nil {
		panic(err)
	}

	demucsSeparator := must(engine.NewDemucsSeparator(
		config.DemucsWorkingDirPath,
		config.DemucsBinPath,
		executor.BinaryFileExecutor{},
	))

	cache := must(stemcache.NewCache(config.StemCacheDirPath))
	cachedSeparator := engine.NewCachedSeparator(cache, demucsSeparator)

	workingDir := must(working_dir.NewWorkingDir(config.DemucsWorkingDirPath))
	sessionSeparator := separator.NewSessionSeparator(cachedSeparator, sessionStore, workingDir)

	return separate.NewJobHandler(sessionSeparator)
}

func newSaveResultsJobHandler(config Config, sessionStore sessionentity.Store) save_results.JobHandler {
	if config.CloudStorageConfig == nil {
		return save_results.NewJobHandler(sessionStore, save_results.NoopStemExporter{})
	}

	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.GetStorageHost(),
		Bucket: config.CloudStorageConfig.GetBucket(),
	}

	exporter := save_results.NewCloudStemExporter(
		newGoogleFileStore(config.CloudStorageConfig),
		pathGenerator,
	)

	return save_results.NewJobHandler(sessionStore, exporter)
}
