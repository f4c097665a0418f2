package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
	"github.com/ioko18/magflow-erp-sub002/internal/infrastructure/cache"
	"github.com/ioko18/magflow-erp-sub002/internal/infrastructure/imagehash"
	"github.com/ioko18/magflow-erp-sub002/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine  *usecase.MatchingEngine
	hasher  domain.PerceptualHasher
	hashTTL time.Duration
	hashes  domain.DerivationCache
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(engine *usecase.MatchingEngine, hasher domain.PerceptualHasher, hashes domain.DerivationCache, hashTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:  engine,
		hasher:  hasher,
		hashTTL: hashTTL,
		hashes:  hashes,
		logger:  logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "magflow-matcher",
		"version": "1.0.0",
	})
}

// matchProduct is one listing in a match request. Besides the raw fields it
// may carry a precomputed hash (hex) or raw image bytes (base64); images are
// hashed server-side with the configured hasher.
type matchProduct struct {
	domain.RawProduct
	PHash       string `json:"phash,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// MatchRequest is the batch payload for one matching run.
type MatchRequest struct {
	Products []matchProduct     `json:"products" binding:"required"`
	Params   *usecase.RunParams `json:"params,omitempty"`
}

// MatchProducts runs one matching batch and returns the grouped report.
func (h *Handler) MatchProducts(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	products := make([]domain.RawProduct, len(req.Products))
	var warnings []string
	for i, p := range req.Products {
		product := p.RawProduct
		hash, warn := h.resolveHash(c, p)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if hash != nil {
			product.PerceptualHash = hash
		}
		products[i] = product
	}

	report, err := h.engine.Run(c.Request.Context(), products, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedProduct), errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("matching run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "matching run failed"})
		}
		return
	}

	report.Warnings = append(warnings, report.Warnings...)
	c.JSON(http.StatusOK, report)
}

// resolveHash fills in the product's perceptual hash from an explicit hex
// hash or from attached image bytes. Image problems degrade that product to
// text-only matching with a warning; they never fail the run.
func (h *Handler) resolveHash(c *gin.Context, p matchProduct) (*domain.ImageHash, string) {
	if p.PerceptualHash != nil {
		return p.PerceptualHash, ""
	}

	if p.PHash != "" {
		hash, err := domain.ParseImageHash(h.hasher.Algorithm(), p.PHash)
		if err != nil {
			return nil, fmt.Sprintf("product %s: %v; matched by text only", p.ID, err)
		}
		return &hash, ""
	}

	if p.ImageBase64 == "" {
		return nil, ""
	}

	data, err := base64.StdEncoding.DecodeString(p.ImageBase64)
	if err != nil {
		return nil, fmt.Sprintf("product %s: invalid image encoding; matched by text only", p.ID)
	}

	key := cache.DigestKey(data)
	if cached, err := h.hashes.Get(c.Request.Context(), key); err == nil {
		return &cached, ""
	}

	img, err := h.decodeAndHash(data)
	if err != nil {
		return nil, fmt.Sprintf("product %s: %v; matched by text only", p.ID, err)
	}
	if err := h.hashes.Set(c.Request.Context(), key, *img, h.hashTTL); err != nil {
		h.logger.Warn("hash cache write failed", zap.String("product", p.ID), zap.Error(err))
	}
	return img, ""
}

func (h *Handler) decodeAndHash(data []byte) (*domain.ImageHash, error) {
	img, err := imagehash.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	hash, err := h.hasher.Hash(img)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}
