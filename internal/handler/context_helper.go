package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/middleware"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

func actorFromContext(c *gin.Context) models.Actor {
	return middleware.ActorFrom(c)
}

// bindJSON decodes the request body and answers VALIDATION_ERROR on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return false
	}
	return true
}

func sendExport(c *gin.Context, filename, contentType string, payload []byte) {
	response.Attachment(c, filename, contentType, payload)
}
