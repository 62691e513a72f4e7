package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a board entry. A post belongs to a category, and a thread reply also points at its parent post.
type Post struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"index;not null" json:"userId"`
	Author       string         `gorm:"size:255;not null" json:"author"`
	CategoryID   *uint          `gorm:"index" json:"categoryId"`
	ParentPostID *uint          `gorm:"index" json:"parentPostId"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	ViewCount    int64          `gorm:"not null;default:0" json:"viewCount"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Category   *Category `json:"-"`
	ParentPost *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Comments   []Comment `json:"-"`
}
