package sessiongateway

import (
	"net/http"

	"github.com/PMosby/Stem-Visualizer/src/server/internal/errors/api"
	"github.com/PMosby/Stem-Visualizer/src/server/internal/errors/gateway"
	"github.com/PMosby/Stem-Visualizer/src/server/internal/lib/request"
	sessionerrors "github.com/PMosby/Stem-Visualizer/src/server/internal/session/errors"
	sessionusecase "github.com/PMosby/Stem-Visualizer/src/server/internal/session/usecase"
	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
)

type Gateway struct {
	usecase sessionusecase.Usecase
}

func NewGateway(usecase sessionusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) CreateSession(c echo.Context) error {
	ctx := request.Context(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		err = errors.Wrap(err, "Failed to read the uploaded file from the request")
		apiErr := api.CommitError(err,
			sessionerrors.BadUploadCode,
			"No audio file was attached to the request")
		return gateway.ErrorResponse(c, apiErr)
	}

	file, err := fileHeader.Open()
	if err != nil {
		err = errors.Wrap(err, "Failed to open the uploaded file")
		apiErr := api.CommitError(err,
			sessionerrors.BadUploadCode,
			"The uploaded file couldn't be read")
		return gateway.ErrorResponse(c, apiErr)
	}
	defer file.Close()

	modelID := c.FormValue("model")
	device := c.FormValue("device")

	session, apiErr := g.usecase.CreateSession(ctx, fileHeader.Filename, file, modelID, device)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to create the separation session")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, session)
}

func (g Gateway) GetSession(c echo.Context, sessionID string) error {
	ctx := request.Context(c)

	session, apiErr := g.usecase.GetSession(ctx, sessionID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get the separation session")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, session)
}

func (g Gateway) GetStem(c echo.Context, sessionID string, stemName string) error {
	ctx := request.Context(c)

	stemFilePath, apiErr := g.usecase.StemFilePath(ctx, sessionID, stemName)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to locate the stem file")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.File(stemFilePath)
}

func (g Gateway) GetStemFeatures(c echo.Context, sessionID string, stemName string) error {
	ctx := request.Context(c)

	bundle, apiErr := g.usecase.StemFeatures(ctx, sessionID, stemName)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to analyze the stem")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, bundle)
}

type mixRequest struct {
	Stems []string `json:"stems"`
}

func (g Gateway) CreateMix(c echo.Context, sessionID string) error {
	ctx := request.Context(c)

	req := mixRequest{}
	if err := c.Bind(&req); err != nil {
		err = errors.Wrap(err, "Failed to bind request body to mix request")
		apiErr := api.CommitError(err,
			sessionerrors.NoStemsSelectedCode,
			"The mix request was malformed. Send a JSON body with a stems array")
		return gateway.ErrorResponse(c, apiErr)
	}

	mixFilePath, apiErr := g.usecase.CreateMix(ctx, sessionID, req.Stems)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to mix the selected stems")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.File(mixFilePath)
}
