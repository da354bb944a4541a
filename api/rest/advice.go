package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zweiadr/gw2advisor/advisor"
	"github.com/zweiadr/gw2advisor/inventory"
	"github.com/zweiadr/gw2advisor/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdviceHandler exposes the load lifecycle and one endpoint per advice rule.
type AdviceHandler struct {
	svc    *advisor.Service
	db     *gorm.DB
	logger *zap.Logger
}

// NewAdviceHandler creates a new AdviceHandler.
func NewAdviceHandler(svc *advisor.Service, db *gorm.DB, logger *zap.Logger) *AdviceHandler {
	return &AdviceHandler{svc: svc, db: db, logger: logger}
}

// Status handles GET /api/status.
func (h *AdviceHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

type loadRequest struct {
	KeyIDs []int64 `json:"key_ids"`
}

// Load handles POST /api/load. Without explicit key ids, every selected
// saved key is used.
func (h *AdviceHandler) Load(c *gin.Context) {
	var req loadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var rows []model.APIKey
	q := h.db.Order("id")
	if len(req.KeyIDs) > 0 {
		q = q.Where("id IN ?", req.KeyIDs)
	} else {
		q = q.Where("selected = ?", true)
	}
	if err := q.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no api keys selected, add at least one"})
		return
	}

	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = row.Key
	}
	if err := h.svc.StartLoad(keys); err != nil {
		if errors.Is(err, advisor.ErrLoadInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "load already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Info("load started", zap.Int("keys", len(keys)))
	c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
}

// Abort handles POST /api/abort.
func (h *AdviceHandler) Abort(c *gin.Context) {
	h.svc.Abort()
	c.JSON(http.StatusOK, gin.H{"status": "aborting"})
}

// Rules handles GET /api/advice: the rule catalog in presentation order.
func (h *AdviceHandler) Rules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": inventory.RuleNames})
}

// Advice handles GET /api/advice/:rule.
func (h *AdviceHandler) Advice(c *gin.Context) {
	rule := c.Param("rule")
	known := false
	for _, name := range inventory.RuleNames {
		if name == rule {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rule"})
		return
	}

	m := h.svc.Model()
	if m == nil || !m.IsReady() {
		c.JSON(http.StatusConflict, gin.H{"error": "no account data loaded"})
		return
	}
	results := m.Advice(rule)
	if results == nil {
		results = []inventory.ItemForDisplay{}
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule, "advice": results})
}
