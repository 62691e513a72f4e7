package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// CommentController manages comments.
type CommentController struct {
	comments *services.CommentService
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// Create adds a comment or a reply to a comment.
func (c *CommentController) Create(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	var req struct {
		PostID   uint   `json:"postId" binding:"required"`
		ParentID *uint  `json:"parentId"`
		Content  string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	created, err := c.comments.Create(id, services.CommentInput{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, "comment created", created)
}

// List returns the comments of ?postId= as a nested tree.
func (c *CommentController) List(ctx *gin.Context) {
	postID, err := strconv.ParseUint(ctx.Query("postId"), 10, 64)
	if err != nil || postID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40052, "postId is required")
		return
	}
	tree, err := c.comments.ListByPost(uint(postID))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", tree)
}

// Get returns one comment; likedByMe is filled for authenticated callers.
func (c *CommentController) Get(ctx *gin.Context) {
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var viewer *services.Identity
	if id, ok := middleware.IdentityFrom(ctx); ok {
		viewer = &id
	}
	view, err := c.comments.FindOne(commentID, viewer)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", view)
}

// Update edits a comment owned by the caller.
func (c *CommentController) Update(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}
	view, err := c.comments.Update(id, commentID, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "comment updated", view)
}

// Delete soft-deletes a comment owned by the caller.
func (c *CommentController) Delete(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.comments.Delete(id, commentID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "comment deleted", nil)
}
