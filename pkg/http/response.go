package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body: the HTTP status, its text,
// and the endpoint payload. The status is repeated in the body so
// browser clients reading the websocket and REST surfaces see one
// shape.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListPayload wraps list endpoints with a row count.
type ListPayload struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusCreated, data)
}

func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return respond(c, http.StatusOK, &ListPayload{Rows: rows, Total: total})
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusBadRequest, data)
}

func NotFoundResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusNotFound, data)
}

func InternalServerErrorResponse(c echo.Context) error {
	return respond(c, http.StatusInternalServerError, "something went wrong")
}

// AppErrorResponse renders an AppError with its own status; anything
// else is a 500 with no detail leaked.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respond(c, appErr.Status, appErr)
	}
	return InternalServerErrorResponse(c)
}
