package application

import (
	"net/http"
	"os"

	sessiongateway "github.com/PMosby/Stem-Visualizer/src/server/internal/session/gateway"
	sessionusecase "github.com/PMosby/Stem-Visualizer/src/server/internal/session/usecase"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/encode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/mix"
	"github.com/PMosby/Stem-Visualizer/src/shared/config"
	dynamolib "github.com/PMosby/Stem-Visualizer/src/shared/lib/dynamo"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/executor"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/rabbitmq"
	sessionstorage "github.com/PMosby/Stem-Visualizer/src/shared/session/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo *echo.Echo
	port string
}

type Config struct {
	DynamoConfig       config.Dynamo
	RabbitMQURL        string
	RabbitMQQueueName  string
	CORSAllowedOrigins []string
	Port               string
	Log                bool

	UploadDirPath string
	FFmpegBinPath string
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	sessionGateway := makeSessionGateway(config)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// separation session routes
	handleRoute(POST, "/sessions", sessionGateway.CreateSession)
	handleRoute(GET, "/sessions/:id", func(c echo.Context) error {
		sessionID := c.Param("id")
		return sessionGateway.GetSession(c, sessionID)
	})
	handleRoute(GET, "/sessions/:id/stems/:stem", func(c echo.Context) error {
		sessionID := c.Param("id")
		stemName := c.Param("stem")
		return sessionGateway.GetStem(c, sessionID, stemName)
	})
	handleRoute(GET, "/sessions/:id/stems/:stem/features", func(c echo.Context) error {
		sessionID := c.Param("id")
		stemName := c.Param("stem")
		return sessionGateway.GetStemFeatures(c, sessionID, stemName)
	})
	handleRoute(POST, "/sessions/:id/mix", func(c echo.Context) error {
		sessionID := c.Param("id")
		return sessionGateway.CreateMix(c, sessionID)
	})

	return App{
		echo: e,
		port: config.Port,
	}
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeSessionGateway(config Config) sessiongateway.Gateway {
	if err := os.MkdirAll(config.UploadDirPath, os.ModePerm); err != nil {
		panic(errors.Wrap(err, "Failed to create the upload directory"))
	}

	sessionDB := sessionstorage.NewDB(makeDynamoDB(config.DynamoConfig))
	publisher := makeRabbitMQPublisher(config)

	decoder := decode.NewChain(config.FFmpegBinPath, audio.DefaultSampleRate, executor.BinaryFileExecutor{})
	writer := encode.NewChain(config.FFmpegBinPath, executor.BinaryFileExecutor{})
	mixer := mix.NewMixer(decoder, writer)

	sessionUsecase := sessionusecase.NewUsecase(sessionDB, publisher, decoder, mixer, config.UploadDirPath)
	return sessiongateway.NewGateway(sessionUsecase)
}

func makeRabbitMQPublisher(config Config) *rabbitmq.QueuePublisher {
	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
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

	db := dynamo.New(dbSession, dbConfig)
	return dynamolib.NewDynamoDBWrapper(db)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
