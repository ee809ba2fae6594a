package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/feeds"

	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/models"
)

const rssContentType = "application/rss+xml"

// GetRSS handles GET /rss: the aggregated feed re-published as RSS.
func (h *Handlers) GetRSS(c *fiber.Ctx) error {
	doc, err := h.store.Load()
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("feed not initialized")
	}

	rss, err := buildRSS(doc)
	if err != nil {
		logger.Get().Error().Err(err).Msg("error generating RSS")
		return c.Status(fiber.StatusInternalServerError).SendString("failed to generate RSS")
	}

	c.Set(fiber.HeaderContentType, rssContentType)
	return c.SendString(rss)
}

func buildRSS(doc *models.FeedDocument) (string, error) {
	feed := &feeds.Feed{
		Title:       "Oasis",
		Link:        &feeds.Link{Href: "https://oasis.local/"},
		Description: "Aggregated videos, posts and podcast episodes",
		Created:     time.Now(),
	}

	for _, item := range doc.Items {
		published, _ := time.Parse(time.RFC3339, item.Published)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          item.ID,
			Title:       rssTitle(item),
			Link:        &feeds.Link{Href: item.URL},
			Description: item.Content,
			Author:      &feeds.Author{Name: item.Source},
			Created:     published,
		})
	}

	return feed.ToRss()
}

// rssTitle falls back to a content snippet for platforms without titles.
func rssTitle(item models.Item) string {
	if item.Title != nil && *item.Title != "" {
		return *item.Title
	}
	runes := []rune(item.Content)
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return item.Content
}
