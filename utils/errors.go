package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chatbot-backend/services"
)

// ErrorResponse is the JSON shape every error leaves the API in.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithServiceError maps a service-layer error onto the HTTP surface
// using its category, so handlers never inspect errors themselves.
func RespondWithServiceError(c *gin.Context, err error) {
	category := services.CategoryOf(err)
	details := gin.H{"stage": services.StageOf(err)}

	switch category {
	case services.CategoryValidation:
		RespondWithError(c, http.StatusBadRequest, string(category), err.Error(), details)
	case services.CategoryNotFound:
		RespondWithError(c, http.StatusNotFound, string(category), err.Error(), details)
	case services.CategoryDependency:
		RespondWithError(c, http.StatusBadGateway, string(category), err.Error(), details)
	default:
		RespondWithError(c, http.StatusInternalServerError, string(category), err.Error(), details)
	}
}
