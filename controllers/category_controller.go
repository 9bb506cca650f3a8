package controllers

import (
	"net/http"

	"Gin_postgres_redis_lending_tracker/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryController struct{ *Srv }

func NewCategoryController(s *Srv) *CategoryController { return &CategoryController{Srv: s} }

// GET /api/categories
func (cc *CategoryController) ListCategories(c *gin.Context) {
	cats, err := cc.Repo.ListCategories(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cats})
}

// POST /api/categories
func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	cat, err := cc.Repo.CreateCategory(c.Request.Context(), uid, in.Name)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// PUT /api/categories/:id
func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	cat, err := cc.Repo.RenameCategory(c.Request.Context(), uid, id, in.Name)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// DELETE /api/categories/:id
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	if err := cc.Repo.DeleteCategory(c.Request.Context(), uid, id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
