package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

type mediaService interface {
	Upload(ctx context.Context, actor models.Actor, filename string, r io.Reader) (*dto.MediaUploadResponse, error)
	SignURL(actor models.Actor, objectPath string) (string, time.Time, error)
	OpenSigned(ctx context.Context, objectPath, token string) (io.ReadCloser, string, error)
	Open(ctx context.Context, objectPath string) (io.ReadCloser, string, error)
}

type signMediaRequest struct {
	Path string `json:"path" binding:"required"`
}

// MediaHandler accepts uploads and serves stored objects.
type MediaHandler struct {
	media      mediaService
	signedBase string
}

// NewMediaHandler constructs the handler. signedBase is the absolute prefix of the signed route.
func NewMediaHandler(media mediaService, signedBase string) *MediaHandler {
	return &MediaHandler{media: media, signedBase: strings.TrimRight(signedBase, "/")}
}

// Upload godoc
// @Summary Upload an image or video
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Router /media [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file could not be read"))
		return
	}
	defer file.Close()

	res, err := h.media.Upload(c.Request.Context(), actorFromContext(c), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Sign godoc
// @Summary Time-limited link to one of the caller's objects
// @Tags Media
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /media/sign [post]
func (h *MediaHandler) Sign(c *gin.Context) {
	var req signMediaRequest
	if !bindJSON(c, &req) {
		return
	}
	token, expires, err := h.media.SignURL(actorFromContext(c), req.Path)
	if err != nil {
		response.Error(c, err)
		return
	}
	link := h.signedBase + "/" + strings.TrimLeft(req.Path, "/") + "?token=" + url.QueryEscape(token)
	response.JSON(c, http.StatusOK, dto.SignedMediaResponse{URL: link, ExpiresAt: expires})
}

// Signed godoc
// @Summary Serve an object through a signed link
// @Tags Media
// @Param path path string true "Object path"
// @Param token query string true "Signature"
// @Success 200 {file} file
// @Router /media/signed/{path} [get]
func (h *MediaHandler) Signed(c *gin.Context) {
	rc, contentType, err := h.media.OpenSigned(c.Request.Context(), objectPath(c), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, rc, contentType, "private, max-age=60")
}

// Serve streams a public object for the local driver.
func (h *MediaHandler) Serve(c *gin.Context) {
	rc, contentType, err := h.media.Open(c.Request.Context(), objectPath(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, rc, contentType, "public, max-age=86400")
}

func objectPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func stream(c *gin.Context, rc io.ReadCloser, contentType, cacheControl string) {
	defer rc.Close()
	c.Header("Cache-Control", cacheControl)
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
