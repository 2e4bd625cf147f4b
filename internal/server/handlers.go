package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/prosodify/prosodify/internal/azure"
)

// VoiceLister is the upstream voices list.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]azure.RawVoice, error)
}

var localePattern = regexp.MustCompile(`^[A-Za-z]{0,8}(-[A-Za-z0-9]{0,8})*$`)

// VoicesHandler serves the voice catalog built from the Azure voices list.
type VoicesHandler struct {
	lister VoiceLister
	filter azure.Filter
	ttl    time.Duration
	cache  *gocache.Cache
	now    func() time.Time
	logger *log.Logger
}

// NewVoicesHandler creates a handler that keeps each organized catalog for ttl.
func NewVoicesHandler(lister VoiceLister, filter azure.Filter, ttl time.Duration, logger *log.Logger) *VoicesHandler {
	return &VoicesHandler{
		lister: lister,
		filter: filter,
		ttl:    ttl,
		cache:  gocache.New(ttl, 2*ttl),
		now:    time.Now,
		logger: logger,
	}
}

// HandleVoices answers GET /api/voices. A locale query parameter overrides
// the configured locale prefix.
func (h *VoicesHandler) HandleVoices(c *gin.Context) {
	filter, err := h.requestFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	cat, err := h.catalog(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// HandleVoicesHead answers HEAD /api/voices with caching headers only.
func (h *VoicesHandler) HandleVoicesHead(c *gin.Context) {
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.ttl.Seconds())))
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
}

// HandleStyles answers GET /api/voice-styles with each voice's styles.
func (h *VoicesHandler) HandleStyles(c *gin.Context) {
	filter, err := h.requestFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	cat, err := h.catalog(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "styles": cat.StyleMap()})
}

func (h *VoicesHandler) requestFilter(c *gin.Context) (azure.Filter, error) {
	filter := h.filter
	if locale, ok := c.GetQuery("locale"); ok {
		if !localePattern.MatchString(locale) {
			return filter, fmt.Errorf("%w: locale %q", ErrInvalidInput, locale)
		}
		filter.LocalePrefix = locale
	}
	return filter, nil
}

func (h *VoicesHandler) catalog(ctx context.Context, f azure.Filter) (azure.Catalog, error) {
	key := f.LocalePrefix + "|" + f.VoiceType
	if v, ok := h.cache.Get(key); ok {
		return v.(azure.Catalog), nil
	}

	raw, err := h.lister.ListVoices(ctx)
	if err != nil {
		var ue *azure.UpstreamError
		if errors.As(err, &ue) || errors.Is(err, ErrNotConfigured) {
			return azure.Catalog{}, err
		}
		return azure.Catalog{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	h.logger.Info("Retrieved voices from Azure", "count", len(raw))

	cat := azure.Organize(raw, f, h.now())
	h.logger.Info("Filtered voices",
		"count", cat.TotalCount,
		"locales", cat.LocaleCount,
		"prefix", f.LocalePrefix,
		"type", f.VoiceType)

	if h.ttl > 0 {
		h.cache.Set(key, cat, gocache.DefaultExpiration)
	}
	return cat, nil
}

// Invalidate drops every cached catalog.
func (h *VoicesHandler) Invalidate() {
	h.cache.Flush()
}
