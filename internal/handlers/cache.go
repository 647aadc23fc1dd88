package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	redisclient "github.com/ivaaanrm/PaceUp/internal/clients/redis"
	"github.com/ivaaanrm/PaceUp/internal/logger"
)

type CacheHandler struct {
	log   *logger.Logger
	cache redisclient.Cache
}

func NewCacheHandler(log *logger.Logger, cache redisclient.Cache) *CacheHandler {
	return &CacheHandler{
		log:   log.With("handler", "CacheHandler"),
		cache: cache,
	}
}

func (h *CacheHandler) Stats(c *gin.Context) {
	RespondOK(c, h.cache.Stats(c.Request.Context()))
}

// Invalidate drops cached entries matching a glob pattern, defaulting to
// everything under the strava: namespace.
func (h *CacheHandler) Invalidate(c *gin.Context) {
	pattern := c.DefaultQuery("pattern", "strava:*")
	deleted := h.cache.DeletePattern(c.Request.Context(), pattern)
	RespondOK(c, gin.H{
		"message":      fmt.Sprintf("Invalidated cache keys matching pattern: %s", pattern),
		"deleted_keys": deleted,
	})
}

func (h *CacheHandler) Health(c *gin.Context) {
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	RespondOK(c, gin.H{"status": "healthy"})
}
