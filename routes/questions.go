package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"volos-codex/internal/ai"
	"volos-codex/internal/logger"
	"volos-codex/middleware"
	"volos-codex/models"
	"volos-codex/services"
	"volos-codex/utils"
)

// Answerer answers rules questions from the rulebook corpus.
type Answerer interface {
	Handle(ctx context.Context, question string, system models.RuleSystem) (string, error)
	SuggestKeyword(ctx context.Context, description string) (string, error)
}

// IndexStatus reports the state of the retrieval index.
type IndexStatus interface {
	Stats() models.IndexStats
}

// Handlers wires the retrieval core into gin.
type Handlers struct {
	Answerer Answerer
	Searcher services.Searcher
	Index    IndexStatus
	// Timeout bounds a request, including a first-time index build.
	Timeout time.Duration
}

func SetupQuestionRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})
	router.GET("/ready", h.ready)

	router.POST("/questions", h.askQuestion)
	router.POST("/search", h.search)
	router.POST("/keywords", h.suggestKeyword)
}

func (h *Handlers) askQuestion(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := utils.WithCustomTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	answer, err := h.Answerer.Handle(ctx, req.Prompt, req.System)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.QuestionResponse{Answer: answer})
}

func (h *Handlers) search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := utils.WithCustomTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	passages, err := h.Searcher.Search(ctx, req.Query, req.System)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SearchResponse{System: req.System, Passages: passages})
}

func (h *Handlers) suggestKeyword(c *gin.Context) {
	var req models.KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := utils.WithTimeout(c.Request.Context())
	defer cancel()

	keyword, err := h.Answerer.SuggestKeyword(ctx, req.Description)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.KeywordResponse{Keyword: keyword})
}

func (h *Handlers) ready(c *gin.Context) {
	stats := h.Index.Stats()
	status := http.StatusOK
	if !stats.Indexed {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

func respondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyQuery), errors.Is(err, services.ErrEmptyPath):
		utils.RespondWithBadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrCacheUnavailable), errors.Is(err, ai.ErrProviderUnavailable):
		utils.RespondWithServiceUnavailable(c, "A backing service is unavailable. Please try again later.")
	case errors.Is(err, ai.ErrQuotaExceeded):
		utils.RespondWithError(c, http.StatusTooManyRequests, "quota_exceeded", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithTimeout(c, "The request took too long. Please try again.")
	default:
		logger.Error("request failed", "path", c.FullPath(), "request_id", middleware.GetRequestID(c), "error", err)
		utils.RespondWithInternalError(c, "Failed to process request", nil)
	}
}
