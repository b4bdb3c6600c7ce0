package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"shelf-scanner/backend/internal/agent/deps"
	"shelf-scanner/backend/internal/middleware"
	"shelf-scanner/backend/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// multipartOverhead is the slack allowed on top of the image for form framing
const multipartOverhead = 1 << 20

var supportedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var (
	errImageTooLarge   = eris.New("image too large")
	errUnsupportedType = eris.New("unsupported image type")
)

// HandleProcessImage identifies the books in an uploaded shelf photo
func (h *Handler) HandleProcessImage(c *gin.Context) {
	logger := h.logger.With(zap.String("request_id", middleware.RequestID(c)))

	img, filename, err := h.readImage(c)
	if err != nil {
		switch {
		case errors.Is(err, errImageTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, model.NewErrorResponse("IMAGE_TOO_LARGE", "Image is too large"))
		case errors.Is(err, errUnsupportedType):
			c.JSON(http.StatusUnsupportedMediaType, model.NewErrorResponse("UNSUPPORTED_IMAGE_TYPE", "Unsupported image type. Use JPEG, PNG, GIF or WebP"))
		default:
			logger.Info("invalid upload", zap.Error(err))
			c.JSON(http.StatusBadRequest, model.NewErrorResponse("IMAGE_REQUIRED", "Invalid request: an image file is required in field 'image'"))
		}
		return
	}

	fields := []zap.Field{
		zap.String("filename", filename),
		zap.String("content_type", img.MIMEType),
		zap.Int("bytes", len(img.Data)),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil {
		fields = append(fields, zap.Int("width", cfg.Width), zap.Int("height", cfg.Height))
	}
	logger.Info("received image", fields...)

	scanner := h.currentScanner()
	if scanner == nil {
		c.JSON(http.StatusServiceUnavailable, model.NewErrorResponse("SERVICE_UNAVAILABLE", "AI service is not available"))
		return
	}

	result, err := scanner.Scan(c.Request.Context(), img)
	if err != nil {
		logger.Error("scan failed", zap.Error(err))
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, model.NewErrorResponse("TIMEOUT", "Request timed out. Please try again."))
		case isRateLimitError(err):
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, model.NewErrorResponse("MODEL_RATE_LIMITED", "The model is busy. Please try again in a minute."))
		default:
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse("INTERNAL_ERROR", "Failed to process image. Please try again."))
		}
		return
	}

	if !result.OK() {
		logger.Warn("invalid model response",
			zap.String("kind", string(result.Kind)),
			zap.String("reason", result.Failure.Message),
		)
		logger.Debug("invalid model response raw text", zap.String("raw", result.Failure.Raw))
		c.JSON(http.StatusBadGateway, model.NewErrorResponse(strings.ToUpper(string(result.Kind)), "Invalid response format"))
		return
	}

	books := model.BooksFromGists(result.Gists, h.cover)
	logger.Info("books identified", zap.Int("count", len(books)))
	c.JSON(http.StatusOK, model.BooksResponse{Books: books})
}

// readImage reads the "image" form file, bounded by maxUploadBytes, and sniffs its type
func (h *Handler) readImage(c *gin.Context) (deps.Image, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return deps.Image{}, "", errImageTooLarge
		}
		return deps.Image{}, "", eris.Wrap(err, "read form file")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return deps.Image{}, "", errImageTooLarge
	}

	f, err := fileHeader.Open()
	if err != nil {
		return deps.Image{}, "", eris.Wrap(err, "open form file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return deps.Image{}, "", eris.Wrap(err, "read image")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return deps.Image{}, "", errImageTooLarge
	}
	if len(data) == 0 {
		return deps.Image{}, "", eris.New("empty image")
	}

	detected := mimetype.Detect(data)
	for _, t := range supportedImageTypes {
		if detected.Is(t) {
			return deps.Image{Data: data, MIMEType: t}, fileHeader.Filename, nil
		}
	}
	return deps.Image{}, "", eris.Wrapf(errUnsupportedType, "detected %s", detected.String())
}

// isRateLimitError checks if the error is a Gemini API rate limit error
func isRateLimitError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	// Fall back to string matching for wrapped errors
	errStr := err.Error()
	return strings.Contains(errStr, "ResourceExhausted") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "Error 429") ||
		strings.Contains(errStr, "code 429") ||
		strings.Contains(errStr, "status 429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}
