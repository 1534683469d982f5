package gateway

import (
	"fmt"
	"net/http"

	"github.com/PMosby/Stem-Visualizer/src/server/api_error"
	"github.com/PMosby/Stem-Visualizer/src/server/internal/errors/api"
	sessionerrors "github.com/PMosby/Stem-Visualizer/src/server/internal/session/errors"
	"github.com/labstack/echo/v4"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                   http.StatusInternalServerError,
	sessionerrors.SessionNotFoundCode:      http.StatusNotFound,
	sessionerrors.BadUploadCode:            http.StatusBadRequest,
	sessionerrors.InvalidModelCode:         http.StatusBadRequest,
	sessionerrors.InvalidDeviceCode:        http.StatusBadRequest,
	sessionerrors.SeparationIncompleteCode: http.StatusConflict,
	sessionerrors.SeparationFailedCode:     http.StatusInternalServerError,
	sessionerrors.StemNotFoundCode:         http.StatusNotFound,
	sessionerrors.UndecodableStemCode:      http.StatusInternalServerError,
	sessionerrors.NoStemsSelectedCode:      http.StatusBadRequest,
	sessionerrors.MixFailedCode:            http.StatusInternalServerError,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
