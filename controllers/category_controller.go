package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// CategoryController exposes the category tree.
type CategoryController struct {
	categories *services.CategoryService
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// List returns the full category tree.
func (c *CategoryController) List(ctx *gin.Context) {
	tree, err := c.categories.List()
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", tree)
}

// Get returns one category with its children and ancestor path.
func (c *CategoryController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.categories.Get(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", detail)
}

// Posts lists posts in the category and all of its descendants.
func (c *CategoryController) Posts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	page, err := c.categories.PostsByCategory(id, parsePagination(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", page)
}

// Create adds a root or child category.
func (c *CategoryController) Create(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		ParentID *uint  `json:"parentId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}
	created, err := c.categories.Create(services.CategoryInput{Name: &req.Name, ParentID: req.ParentID})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, "category created", created)
}

// Update renames or moves a category; parentId 0 moves it to the root.
func (c *CategoryController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		ParentID *uint   `json:"parentId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}
	updated, err := c.categories.Update(id, services.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "category updated", updated)
}

// Delete removes a category; ?cascade=true also removes its subtree and posts.
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	cascade, _ := strconv.ParseBool(ctx.DefaultQuery("cascade", "false"))
	if err := c.categories.Remove(id, cascade); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "category deleted", nil)
}
