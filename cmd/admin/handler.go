package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/services"
	"github.com/rs/zerolog/log"
)

type Reconciliation interface {
	ListOrphanLineItems(ctx context.Context) ([]*model.OrphanLineItem, error)
	PurgeOrphanLineItems(ctx context.Context) (*model.PurgeResult, error)
}

type Documents interface {
	BackfillMissingPaymentDocument(ctx context.Context, paymentID int64) (*model.DocumentBackfill, error)
}

type Ledger interface {
	NextDocumentNumber(ctx context.Context) (string, error)
}

// Handler serves the back office maintenance operations.
type Handler struct {
	reconciliation Reconciliation
	documents      Documents
	ledger         Ledger
}

func NewHandler(reconciliation Reconciliation, documents Documents, ledger Ledger) *Handler {
	return &Handler{
		reconciliation: reconciliation,
		documents:      documents,
		ledger:         ledger,
	}
}

// ListOrphans reports line items whose product no longer exists
func (h *Handler) ListOrphans(c *gin.Context) {
	items, err := h.reconciliation.ListOrphanLineItems(c.Request.Context())
	if err != nil {
		h.fail(c, "list orphans", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// PurgeOrphans deletes the orphaned line items and returns what was removed
func (h *Handler) PurgeOrphans(c *gin.Context) {
	result, err := h.reconciliation.PurgeOrphanLineItems(c.Request.Context())
	if err != nil {
		h.fail(c, "purge orphans", err)
		return
	}

	log.Info().
		Int("count", result.Count).
		Msg("Orphaned line items purged")

	c.JSON(http.StatusOK, result)
}

// BackfillDocument assigns a document number to a payment missing one
func (h *Handler) BackfillDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a positive integer",
		})
		return
	}

	result, err := h.documents.BackfillMissingPaymentDocument(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "backfill document", err)
		return
	}

	log.Info().
		Int64("transaction_id", id).
		Str("document", result.Document).
		Bool("assigned", result.Assigned).
		Int64("references_updated", result.ReferencesUpdated).
		Msg("Payment document backfilled")

	c.JSON(http.StatusOK, result)
}

func (h *Handler) NextDocument(c *gin.Context) {
	doc, err := h.ledger.NextDocumentNumber(c.Request.Context())
	if err != nil {
		h.fail(c, "next document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting request, retry"})
	default:
		log.Error().
			Err(err).
			Str("op", op).
			Msg("Admin operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
	}
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	admin := router.Group("/admin")
	{
		admin.GET("/orphan-items", handler.ListOrphans)
		admin.DELETE("/orphan-items", handler.PurgeOrphans)
		admin.POST("/transactions/:id/document", handler.BackfillDocument)
		admin.GET("/next-document", handler.NextDocument)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}
