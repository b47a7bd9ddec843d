package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/ranking"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// api serves read-only views of rankings, stats and quotes. The bot process owns
// all writes, so the quote counter is resynced from the store on every request.
type api struct {
	store    graph.Store
	resolver *identity.Resolver
	counter  *ranking.Counter
	engine   *ranking.Engine
	log      *zap.Logger
}

func newAPI(store graph.Store, log *zap.Logger) *api {
	counter := ranking.NewCounter(0)
	return &api{
		store:    store,
		resolver: identity.NewResolver(store, log),
		counter:  counter,
		engine:   ranking.NewEngine(store, counter),
		log:      log,
	}
}

func newRouter(a *api, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/health", a.health)

	routes := router.Group("/api")
	{
		routes.GET("/ranking/:kind", a.ranking)
		routes.GET("/users/:identifier/stats", a.stats)
		routes.GET("/users/:identifier/quotes", a.quotes)
	}
	return router
}

func (a *api) health(c *gin.Context) {
	total, err := a.store.TotalQuoteCount(c.Request.Context())
	if err != nil {
		a.writeError(c, "health", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "quotes": total})
}

func (a *api) resync(ctx context.Context) error {
	_, err := a.counter.Resync(ctx, a.store)
	return err
}

func (a *api) ranking(c *gin.Context) {
	ctx := c.Request.Context()
	kind, err := graph.ParseRelationKind(c.Param("kind"))
	if err != nil {
		a.writeError(c, "ranking", apperrors.NewValidation("kind", c.Param("kind"), "use said, wrote or assisted"))
		return
	}
	if err := a.resync(ctx); err != nil {
		a.writeError(c, "ranking", err)
		return
	}
	entries, err := a.engine.Ranking(ctx, kind)
	if err != nil {
		a.writeError(c, "ranking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":    kind,
		"total":   a.counter.Load(),
		"entries": entries,
	})
}

func (a *api) user(c *gin.Context) (*graph.User, error) {
	id, err := identity.Parse(c.Param("identifier"))
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(c.Request.Context(), id)
}

func (a *api) stats(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := a.user(c)
	if err != nil {
		a.writeError(c, "stats", err)
		return
	}
	if err := a.resync(ctx); err != nil {
		a.writeError(c, "stats", err)
		return
	}
	stats, err := a.engine.Stats(ctx, user)
	if err != nil {
		a.writeError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *api) quotes(c *gin.Context) {
	kind, err := graph.ParseRelationKind(c.DefaultQuery("kind", string(graph.Said)))
	if err != nil {
		a.writeError(c, "quotes", apperrors.NewValidation("kind", c.Query("kind"), "use said, wrote or assisted"))
		return
	}
	user, err := a.user(c)
	if err != nil {
		a.writeError(c, "quotes", err)
		return
	}
	quotes, err := a.store.QuotesByRelation(c.Request.Context(), kind, user.ID)
	if err != nil {
		a.writeError(c, "quotes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   user.Name,
		"kind":   kind,
		"quotes": quotes,
	})
}

func (a *api) writeError(c *gin.Context, op string, err error) {
	switch {
	case apperrors.IsNotFound(err):
		var nf *apperrors.ErrNotFound
		entity := "Resource"
		if errors.As(err, &nf) {
			entity = nf.Entity
		}
		c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsStorageUnavailable(err):
		a.log.Error("Storage unavailable", zap.String("operation", op), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
	default:
		a.log.Error("Request failed", zap.String("operation", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
