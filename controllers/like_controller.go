package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/board/models"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// LikeController toggles reactions on posts and comments.
type LikeController struct {
	reactions *services.ReactionService
}

// NewLikeController creates a new LikeController instance.
func NewLikeController(reactions *services.ReactionService) *LikeController {
	return &LikeController{reactions: reactions}
}

type reactionRequest struct {
	ReactionType models.ReactionType `json:"reactionType" binding:"required,oneof=like disLike"`
}

// LikePost toggles the caller's reaction on a post.
func (l *LikeController) LikePost(ctx *gin.Context) {
	l.toggle(ctx, services.TargetPost, "postId")
}

// LikeComment toggles the caller's reaction on a comment.
func (l *LikeController) LikeComment(ctx *gin.Context) {
	l.toggle(ctx, services.TargetComment, "commentId")
}

func (l *LikeController) toggle(ctx *gin.Context, kind services.TargetKind, param string) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	targetID, ok := parseID(ctx, param)
	if !ok {
		return
	}
	var req reactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	res, err := l.reactions.Toggle(id.ID, services.ReactionTarget{Kind: kind, ID: targetID}, req.ReactionType)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "reaction "+res.Action, res)
}
