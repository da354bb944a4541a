package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zweiadr/gw2advisor/model"
	"gorm.io/gorm"
)

// KeysHandler manages the saved API key list.
type KeysHandler struct {
	db *gorm.DB
}

// NewKeysHandler creates a new KeysHandler.
func NewKeysHandler(db *gorm.DB) *KeysHandler {
	return &KeysHandler{db: db}
}

// List handles GET /api/keys.
func (h *KeysHandler) List(c *gin.Context) {
	var keys []model.APIKey
	if err := h.db.Order("id").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

type createKeyRequest struct {
	Label string `json:"label" binding:"max=64"`
	Key   string `json:"key" binding:"required,min=8,max=80"`
}

// Create handles POST /api/keys.
func (h *KeysHandler) Create(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := model.APIKey{Label: req.Label, Key: strings.TrimSpace(req.Key), Selected: true}
	if err := h.db.Create(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "key already saved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

type updateKeyRequest struct {
	Label    *string `json:"label"`
	Selected *bool   `json:"selected"`
}

// Update handles PATCH /api/keys/:id.
func (h *KeysHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var key model.APIKey
	if err := h.db.First(&key, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found"})
		return
	}
	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.Selected != nil {
		updates["selected"] = *req.Selected
	}
	if len(updates) > 0 {
		if err := h.db.Model(&key).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

// Delete handles DELETE /api/keys/:id.
func (h *KeysHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.db.Delete(&model.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
