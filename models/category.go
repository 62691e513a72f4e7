package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a node of the category tree. Children are derived from ParentID.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null;index" json:"name"`
	ParentID  *uint          `gorm:"index" json:"parentId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `json:"-"`
}
