package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a reply to a post, optionally nested under another comment of the same post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"index;not null" json:"postId"`
	UserID    uint           `gorm:"index;not null" json:"userId"`
	ParentID  *uint          `gorm:"index" json:"parentId"`
	Author    string         `gorm:"size:255;not null" json:"author"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Post   Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	User   User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Parent *Comment `json:"-"`
}
