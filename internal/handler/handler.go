package handler

import (
	"context"
	"sync"

	"shelf-scanner/backend/internal/agent/deps"
	"shelf-scanner/backend/internal/agent/response"
	"shelf-scanner/backend/internal/model"

	"go.uber.org/zap"
)

// DefaultMaxUploadBytes caps the size of an uploaded image
const DefaultMaxUploadBytes = 10 << 20

// ImageScanner turns a shelf photo into a normalized model reply
type ImageScanner interface {
	Scan(ctx context.Context, image deps.Image) (response.Result, error)
}

// Options configures a Handler
type Options struct {
	Logger         *zap.Logger
	Level          zap.AtomicLevel
	Cover          model.CoverFunc
	MaxUploadBytes int64
}

// Handler serves the HTTP API. The scanner may be attached after startup;
// until then scan requests get 503.
type Handler struct {
	mu             sync.RWMutex
	scanner        ImageScanner
	logger         *zap.Logger
	level          zap.AtomicLevel
	cover          model.CoverFunc
	maxUploadBytes int64
}

// New creates a Handler
func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Level == (zap.AtomicLevel{}) {
		opts.Level = zap.NewAtomicLevel()
	}
	if opts.Cover == nil {
		opts.Cover = model.TemplateCover(model.DefaultCoverURLTemplate)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		logger:         opts.Logger,
		level:          opts.Level,
		cover:          opts.Cover,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// SetScanner attaches the scanner
func (h *Handler) SetScanner(s ImageScanner) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scanner = s
}

func (h *Handler) currentScanner() ImageScanner {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scanner
}
