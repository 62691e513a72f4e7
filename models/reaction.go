package models

import "time"

// ReactionType is the kind of vote a user casts on a post or comment.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDisLike ReactionType = "disLike"
)

// Valid reports whether t is a known reaction kind.
func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDisLike
}

// Reaction is a like/dislike on exactly one of a post or a comment.
// At most one row exists per (user, post) and per (user, comment).
type Reaction struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_likes_user_post;uniqueIndex:idx_likes_user_comment" json:"userId"`
	PostID       *uint        `gorm:"uniqueIndex:idx_likes_user_post" json:"postId"`
	CommentID    *uint        `gorm:"uniqueIndex:idx_likes_user_comment" json:"commentId"`
	ReactionType ReactionType `gorm:"size:16;not null" json:"reactionType"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TableName keeps the historical table name.
func (Reaction) TableName() string { return "likes" }

// All returns every model managed by migrations, parents first.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Post{}, &Comment{}, &Reaction{}}
}
