// Package httpx provides helper functions for creating HTTP responses.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopbulk/bulk-import-backend/internal/models"

	"github.com/aws/aws-lambda-go/events"
)

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayProxyResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(b),
	}, nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayProxyResponse, error) {
	return JSON(status, map[string]string{"error": msg})
}

// errorCode creates a response carrying a machine-readable error code.
func errorCode(status int, code string) (events.APIGatewayProxyResponse, error) {
	return JSON(status, map[string]string{"errorCode": code})
}

// FromError maps the domain error taxonomy onto transport responses.
// Sheet errors keep the error codes the import UI matches on.
func FromError(err error) (events.APIGatewayProxyResponse, error) {
	switch {
	case errors.Is(err, models.ErrEmptySheet):
		return errorCode(http.StatusBadRequest, "NO_PRODUCT_FOUND")
	case errors.Is(err, models.ErrHeaderNotFound):
		return errorCode(http.StatusBadRequest, "HEADER_NOT_FOUND")
	case errors.Is(err, models.ErrInvalidArgument):
		return Error(http.StatusBadRequest, "bad request")
	case errors.Is(err, models.ErrNotFound):
		return Error(http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrConflict):
		return Error(http.StatusConflict, "already exists")
	case errors.Is(err, models.ErrStorageUnavailable):
		return Error(http.StatusServiceUnavailable, "storage unavailable")
	default:
		return Error(http.StatusInternalServerError, "internal error")
	}
}
