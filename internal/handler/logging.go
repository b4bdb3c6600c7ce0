package handler

import (
	"net/http"
	"strings"

	"shelf-scanner/backend/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelResponse is returned after a successful level change
type LogLevelResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// switchableLevels are the levels that may be set at runtime
var switchableLevels = map[string]zapcore.Level{
	"info":  zapcore.InfoLevel,
	"debug": zapcore.DebugLevel,
}

// HandleGetLogLevel reports the current log level
func (h *Handler) HandleGetLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"level": h.level.Level().String()})
}

// HandleSetLogLevel switches between info and debug logging without a restart
func (h *Handler) HandleSetLogLevel(c *gin.Context) {
	raw := c.Query("level")
	if raw == "" {
		raw = c.PostForm("level")
	}
	name := strings.ToLower(strings.TrimSpace(raw))

	level, ok := switchableLevels[name]
	if !ok {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_LEVEL", "Invalid level. Use 'info' or 'debug'"))
		return
	}

	previous := h.level.Level()
	h.level.SetLevel(level)
	h.logger.Info("log level changed",
		zap.Stringer("from", previous),
		zap.Stringer("to", level),
	)

	c.JSON(http.StatusOK, LogLevelResponse{
		Status:  "success",
		Message: "Logging level set to " + strings.ToUpper(name),
	})
}
