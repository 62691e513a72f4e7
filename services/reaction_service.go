package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// TargetKind names what a reaction points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// ReactionTarget identifies a post or a comment.
type ReactionTarget struct {
	Kind TargetKind
	ID   uint
}

func (t ReactionTarget) column() string {
	if t.Kind == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

// Toggle outcomes.
const (
	ActionCreated  = "created"
	ActionRemoved  = "removed"
	ActionSwitched = "switched"
)

// ToggleResult reports what a toggle did.
type ToggleResult struct {
	Action       string              `json:"action"`
	ReactionType models.ReactionType `json:"reactionType"`
	ID           uint                `json:"id,omitempty"`
}

// ReactionService manages likes and dislikes.
type ReactionService struct {
	db *gorm.DB
}

func NewReactionService(db *gorm.DB) *ReactionService {
	return &ReactionService{db: db}
}

// Toggle applies kind to target for the user: same kind again removes the row,
// the other kind switches it, and no row creates one.
func (s *ReactionService) Toggle(userID uint, target ReactionTarget, kind models.ReactionType) (*ToggleResult, error) {
	if !kind.Valid() {
		return nil, BadRequest(40060, "reactionType must be like or disLike")
	}
	if target.Kind != TargetPost && target.Kind != TargetComment {
		return nil, BadRequest(40061, "unknown reaction target")
	}
	if target.ID == 0 {
		return nil, BadRequest(40062, "invalid reaction target id")
	}

	var result ToggleResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Reaction
		err := tx.Where("user_id = ? AND "+target.column()+" = ?", userID, target.ID).First(&existing).Error
		switch {
		case err == nil:
			if existing.ReactionType == kind {
				if err := tx.Delete(&existing).Error; err != nil {
					return fmt.Errorf("delete reaction: %w", err)
				}
				result = ToggleResult{Action: ActionRemoved, ReactionType: kind}
				return nil
			}
			if err := tx.Model(&existing).Update("reaction_type", kind).Error; err != nil {
				return fmt.Errorf("switch reaction: %w", err)
			}
			result = ToggleResult{Action: ActionSwitched, ReactionType: kind, ID: existing.ID}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load reaction: %w", err)
		}

		exists, err := targetExists(tx, target)
		if err != nil {
			return err
		}
		if !exists {
			return BadRequest(40063, fmt.Sprintf("%s %d does not exist", target.Kind, target.ID))
		}

		row := models.Reaction{UserID: userID, ReactionType: kind}
		id := target.ID
		if target.Kind == TargetPost {
			row.PostID = &id
		} else {
			row.CommentID = &id
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return BadRequest(40064, "reaction already recorded")
			}
			return fmt.Errorf("create reaction: %w", err)
		}
		result = ToggleResult{Action: ActionCreated, ReactionType: kind, ID: row.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func targetExists(tx *gorm.DB, target ReactionTarget) (bool, error) {
	var n int64
	var err error
	if target.Kind == TargetPost {
		err = tx.Model(&models.Post{}).Where("id = ?", target.ID).Count(&n).Error
	} else {
		err = tx.Model(&models.Comment{}).Where("id = ?", target.ID).Count(&n).Error
	}
	if err != nil {
		return false, fmt.Errorf("check reaction target: %w", err)
	}
	return n > 0, nil
}

// Counts returns like and dislike totals for one target.
func (s *ReactionService) Counts(target ReactionTarget) (ReactionCounts, error) {
	m, err := s.CountsFor(target.Kind, []uint{target.ID})
	if err != nil {
		return ReactionCounts{}, err
	}
	return m[target.ID], nil
}

// CountsFor returns like and dislike totals keyed by target id for many targets of one kind.
func (s *ReactionService) CountsFor(kind TargetKind, ids []uint) (map[uint]ReactionCounts, error) {
	out := make(map[uint]ReactionCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ids = utils.Unique(ids)
	col := ReactionTarget{Kind: kind}.column()

	var rows []struct {
		TargetID     uint
		ReactionType models.ReactionType
		N            int64
	}
	err := s.db.Model(&models.Reaction{}).
		Select(col+" AS target_id, reaction_type, COUNT(*) AS n").
		Where(col+" IN ?", ids).
		Group(col + ", reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	for _, r := range rows {
		c := out[r.TargetID]
		switch r.ReactionType {
		case models.ReactionLike:
			c.Like += r.N
		case models.ReactionDisLike:
			c.DisLike += r.N
		}
		out[r.TargetID] = c
	}
	return out, nil
}

// ReactionOf returns the user's reaction on target, or nil when there is none.
func (s *ReactionService) ReactionOf(userID uint, target ReactionTarget) (*models.Reaction, error) {
	var r models.Reaction
	err := s.db.Where("user_id = ? AND "+target.column()+" = ?", userID, target.ID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reaction: %w", err)
	}
	return &r, nil
}
