// internal/handler/category.go
package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	store storage.CategoryStorage
}

func NewCategoryHandler(store storage.CategoryStorage) *CategoryHandler {
	return &CategoryHandler{store: store}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	f := storage.CategoryFilter{
		Search:  c.Query("search"),
		OrderBy: c.Query("ordering"),
	}
	categories, err := h.store.ListCategories(c.Request.Context(), userID, f)
	if err != nil {
		respondStorageError(c, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat := domain.Category{
		UserID: userID,
		Name:   req.Name,
		Type:   domain.TransactionType(req.Type),
	}
	if err := h.store.CreateCategory(c.Request.Context(), &cat); err != nil {
		respondStorageError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	cat, err := h.store.GetCategory(c.Request.Context(), userID, id)
	if err != nil {
		respondStorageError(c, err, "Failed to get category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat := domain.Category{
		ID:     id,
		UserID: userID,
		Name:   req.Name,
		Type:   domain.TransactionType(req.Type),
	}
	if err := h.store.UpdateCategory(c.Request.Context(), &cat); err != nil {
		respondStorageError(c, err, "Failed to update category")
		return
	}

	updated, err := h.store.GetCategory(c.Request.Context(), userID, id)
	if err != nil {
		respondStorageError(c, err, "Failed to get category")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteCategory(c.Request.Context(), userID, id); err != nil {
		respondStorageError(c, err, "Failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateDefaults provisions the stock categories; calling it twice is
// a no-op for everything already present.
func (h *CategoryHandler) CreateDefaults(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	created, err := h.store.CreateDefaultCategories(c.Request.Context(), userID)
	if err != nil {
		respondStorageError(c, err, "Failed to create default categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Created %d default categories", len(created)),
		"categories": created,
	})
}

// === DTO ===

type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	Type string `json:"type" validate:"required,txtype"`
}
