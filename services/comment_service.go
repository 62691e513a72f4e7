package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
)

// CommentInput carries the fields of a new comment.
type CommentInput struct {
	PostID   uint
	ParentID *uint
	Content  string
}

// CommentView is a single comment with its reaction totals.
type CommentView struct {
	ID           uint      `json:"id"`
	PostID       uint      `json:"postId"`
	UserID       uint      `json:"userId"`
	ParentID     *uint     `json:"parentId"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	LikeCount    int64     `json:"likeCount"`
	DislikeCount int64     `json:"dislikeCount"`
	LikedByMe    bool      `json:"likedByMe"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CommentService manages comments on posts.
type CommentService struct {
	db        *gorm.DB
	reactions *ReactionService
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db, reactions: NewReactionService(db)}
}

func commentNotFound(id uint) *AppError {
	return NotFound(40450, fmt.Sprintf("comment %d not found", id))
}

func (s *CommentService) load(id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, commentNotFound(id), "load comment")
	}
	return &c, nil
}

func cleanComment(content string) (string, error) {
	c := strings.TrimSpace(content)
	if c == "" {
		return "", BadRequest(40050, "content cannot be empty")
	}
	return c, nil
}

// Create adds a comment to a post, optionally as a reply to another comment of the same post.
func (s *CommentService) Create(id Identity, in CommentInput) (*CommentView, error) {
	content, err := cleanComment(in.Content)
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := s.db.First(&post, in.PostID).Error; err != nil {
		return nil, notFoundOr(err, postNotFound(in.PostID), "load post")
	}
	parentID := normalizeParent(in.ParentID)
	if parentID != nil {
		parent, err := s.load(*parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, BadRequest(40051, "parent comment belongs to another post")
		}
	}

	c := models.Comment{
		PostID:   post.ID,
		UserID:   id.ID,
		ParentID: parentID,
		Author:   id.NickName,
		Content:  content,
	}
	if err := s.db.Omit("Post", "User", "Parent").Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return toCommentView(c, ReactionCounts{}, false), nil
}

func toCommentView(c models.Comment, rc ReactionCounts, likedByMe bool) *CommentView {
	return &CommentView{
		ID:           c.ID,
		PostID:       c.PostID,
		UserID:       c.UserID,
		ParentID:     c.ParentID,
		Author:       c.Author,
		Content:      c.Content,
		LikeCount:    rc.Like,
		DislikeCount: rc.DisLike,
		LikedByMe:    likedByMe,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// FindOne returns a comment with its totals; likedByMe is set when viewer liked it.
func (s *CommentService) FindOne(commentID uint, viewer *Identity) (*CommentView, error) {
	c, err := s.load(commentID)
	if err != nil {
		return nil, err
	}
	target := ReactionTarget{Kind: TargetComment, ID: c.ID}
	rc, err := s.reactions.Counts(target)
	if err != nil {
		return nil, err
	}
	liked := false
	if viewer != nil {
		r, err := s.reactions.ReactionOf(viewer.ID, target)
		if err != nil {
			return nil, err
		}
		liked = r != nil && r.ReactionType == models.ReactionLike
	}
	return toCommentView(*c, rc, liked), nil
}

// ListByPost returns a post's live comments as a nested tree.
func (s *CommentService) ListByPost(postID uint) ([]CommentNode, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		return nil, notFoundOr(err, postNotFound(postID), "load post")
	}
	var comments []models.Comment
	if err := s.db.Where("post_id = ?", postID).Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	counts, err := s.reactions.CountsFor(TargetComment, ids)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(comments, counts), nil
}

// Update replaces the content of a comment owned by the caller.
func (s *CommentService) Update(id Identity, commentID uint, content string) (*CommentView, error) {
	c, err := s.load(commentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != id.ID {
		return nil, Unauthorized(40150, "only the author can edit this comment")
	}
	cleaned, err := cleanComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(c).Update("content", cleaned).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	c.Content = cleaned
	return s.FindOne(c.ID, &id)
}

// Delete soft-deletes a comment owned by the caller. Replies stay and are shown at top level.
func (s *CommentService) Delete(id Identity, commentID uint) error {
	c, err := s.load(commentID)
	if err != nil {
		return err
	}
	if c.UserID != id.ID {
		return Unauthorized(40151, "only the author can delete this comment")
	}
	if err := s.db.Delete(c).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
