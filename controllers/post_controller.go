package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// PostController manages posts and thread replies.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// CreatePost creates a post under a category or as a reply to another post.
func (p *PostController) CreatePost(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	var req struct {
		CategoryID   *uint  `json:"categoryId"`
		ParentPostID *uint  `json:"parentPostId"`
		Title        string `json:"title" binding:"required,max=255"`
		Content      string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	created, err := p.posts.Create(id, services.PostInput{
		CategoryID:   req.CategoryID,
		ParentPostID: req.ParentPostID,
		Title:        &req.Title,
		Content:      &req.Content,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, "post created", created)
}

// ListPosts returns a filtered, paginated list of posts.
func (p *PostController) ListPosts(ctx *gin.Context) {
	categoryID, ok := optionalUint(ctx, "categoryId")
	if !ok {
		return
	}
	parentPostID, ok := optionalUint(ctx, "parentPostId")
	if !ok {
		return
	}
	includeDescendants, _ := strconv.ParseBool(ctx.DefaultQuery("includeDescendants", "false"))

	page, err := p.posts.Get(services.PostFilter{
		CategoryID:         categoryID,
		IncludeDescendants: includeDescendants,
		ParentPostID:       parentPostID,
		Search:             ctx.Query("search"),
		Page:               parsePagination(ctx),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", page)
}

// GetPost returns one post with comments, reactions and thread replies.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	detail, err := p.posts.FindOne(postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", detail)
}

// UpdatePost edits a post owned by the caller.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Title      *string `json:"title" binding:"omitempty,max=255"`
		Content    *string `json:"content"`
		CategoryID *uint   `json:"categoryId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	err := p.posts.Update(id, postID, services.PostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "post updated", nil)
}

// DeletePost soft-deletes a post owned by the caller.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := p.posts.Delete(id, postID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "post deleted", nil)
}
