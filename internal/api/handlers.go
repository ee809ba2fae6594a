// Package api exposes the feed document and artifacts over a read-only
// HTTP API for the dashboard.
package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KinGao294/oasis/internal/cache"
	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/store"
)

type Handlers struct {
	store    *store.Store
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewHandlers(st *store.Store, c cache.Cache, cacheTTL time.Duration) *Handlers {
	return &Handlers{
		store:    st,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// GetFeed handles GET /api/v1/feed
func (h *Handlers) GetFeed(c *fiber.Ctx) error {
	if cached, ok := h.fromCache(c, "feed"); ok {
		return h.sendJSON(c, cached)
	}

	doc, err := h.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrNotInitialized) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "feed not initialized; run `oasis fetch` first",
			})
		}
		logger.Get().Error().Err(err).Msg("error loading feed document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load feed",
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to encode feed",
		})
	}
	h.toCache(c, "feed", body)
	return h.sendJSON(c, body)
}

// GetItem handles GET /api/v1/items/:id
func (h *Handlers) GetItem(c *fiber.Ctx) error {
	id := c.Params("id")

	doc, err := h.store.Load()
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "feed not initialized",
		})
	}

	item := doc.FindItem(id)
	if item == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "item not found",
		})
	}
	return c.JSON(item)
}

// GetTranscript handles GET /api/v1/items/:id/transcript
func (h *Handlers) GetTranscript(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.store.HasTranscript(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no transcript for item",
		})
	}

	transcript, err := h.store.LoadTranscript(id)
	if err != nil {
		logger.Get().Error().Err(err).Str("id", id).Msg("error loading transcript")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load transcript",
		})
	}
	return c.JSON(transcript)
}

// GetSummary handles GET /api/v1/items/:id/summary
func (h *Handlers) GetSummary(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.store.HasSummary(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no summary for item",
		})
	}

	summary, err := h.store.LoadSummary(id)
	if err != nil {
		logger.Get().Error().Err(err).Str("id", id).Msg("error loading summary")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load summary",
		})
	}
	return c.JSON(summary)
}

func (h *Handlers) fromCache(c *fiber.Ctx, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	val, ok, err := h.cache.Get(c.Context(), key)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	return val, ok
}

func (h *Handlers) toCache(c *fiber.Ctx, key string, body []byte) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(c.Context(), key, body, h.cacheTTL); err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (h *Handlers) sendJSON(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
