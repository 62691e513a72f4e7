package services

import (
	"sort"
	"time"

	"github.com/cppla/board/models"
)

// CategoryNode is the recursive projection of a category and its subtree.
type CategoryNode struct {
	ID       uint           `json:"id"`
	Name     string         `json:"name"`
	Children []CategoryNode `json:"children"`
}

// ReactionCounts holds like and dislike totals for one post or comment.
type ReactionCounts struct {
	Like    int64 `json:"likeCount"`
	DisLike int64 `json:"dislikeCount"`
}

// FlatComment is one row of a post's comment thread in display order.
type FlatComment struct {
	ID           uint      `json:"id"`
	ParentID     *uint     `json:"parentId"`
	Depth        int       `json:"depth"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	LikeCount    int64     `json:"likeCount"`
	DislikeCount int64     `json:"dislikeCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CommentNode is a comment with its replies nested below it.
type CommentNode struct {
	ID           uint          `json:"id"`
	PostID       uint          `json:"postId"`
	UserID       uint          `json:"userId"`
	ParentID     *uint         `json:"parentId"`
	Author       string        `json:"author"`
	Content      string        `json:"content"`
	LikeCount    int64         `json:"likeCount"`
	DislikeCount int64         `json:"dislikeCount"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Children     []CommentNode `json:"children"`
}

// childIndex maps a parent id to its children ids. Entries whose parent is
// absent from the set are returned as roots.
func childIndex(ids []uint, parentOf func(i int) *uint) (roots []uint, children map[uint][]uint) {
	present := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		present[id] = struct{}{}
	}
	children = make(map[uint][]uint, len(ids))
	for i, id := range ids {
		p := parentOf(i)
		if p == nil {
			roots = append(roots, id)
			continue
		}
		if _, ok := present[*p]; !ok || *p == id {
			roots = append(roots, id)
			continue
		}
		children[*p] = append(children[*p], id)
	}
	return roots, children
}

// BuildCategoryTree projects live categories into a forest ordered by id.
// Categories whose parent is not in cats are treated as roots.
func BuildCategoryTree(cats []models.Category) []CategoryNode {
	sorted := make([]models.Category, len(cats))
	copy(sorted, cats)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ids := make([]uint, len(sorted))
	byID := make(map[uint]models.Category, len(sorted))
	for i, c := range sorted {
		ids[i] = c.ID
		byID[c.ID] = c
	}
	roots, children := childIndex(ids, func(i int) *uint { return sorted[i].ParentID })

	visited := make(map[uint]bool, len(sorted))
	var project func(id uint) CategoryNode
	project = func(id uint) CategoryNode {
		visited[id] = true
		node := CategoryNode{ID: id, Name: byID[id].Name, Children: []CategoryNode{}}
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			node.Children = append(node.Children, project(child))
		}
		return node
	}

	forest := make([]CategoryNode, 0, len(roots))
	for _, id := range roots {
		forest = append(forest, project(id))
	}
	return forest
}

// DescendantIDs returns root and every category reachable below it, each once.
// The result is in depth-first preorder; root is always first.
func DescendantIDs(cats []models.Category, root uint) []uint {
	children := make(map[uint][]uint, len(cats))
	for _, c := range cats {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	}

	visited := map[uint]bool{}
	out := []uint{}
	stack := []uint{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, id)
		kids := children[id]
		for i := len(kids) - 1; i >= 0; i-- {
			if !visited[kids[i]] {
				stack = append(stack, kids[i])
			}
		}
	}
	return out
}

func sortCommentsByCreation(comments []models.Comment) []models.Comment {
	sorted := make([]models.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// FlattenComments orders a post's comments depth first, siblings by creation
// time, and records each comment's depth. Comments whose parent is missing
// are promoted to depth 0.
func FlattenComments(comments []models.Comment, counts map[uint]ReactionCounts) []FlatComment {
	sorted := sortCommentsByCreation(comments)
	ids := make([]uint, len(sorted))
	byID := make(map[uint]models.Comment, len(sorted))
	for i, c := range sorted {
		ids[i] = c.ID
		byID[c.ID] = c
	}
	roots, children := childIndex(ids, func(i int) *uint { return sorted[i].ParentID })

	type frame struct {
		id    uint
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: roots[i]})
	}

	visited := make(map[uint]bool, len(sorted))
	out := make([]FlatComment, 0, len(sorted))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.id] {
			continue
		}
		visited[f.id] = true

		c := byID[f.id]
		rc := counts[c.ID]
		parentID := c.ParentID
		if f.depth == 0 {
			parentID = nil
		}
		out = append(out, FlatComment{
			ID:           c.ID,
			ParentID:     parentID,
			Depth:        f.depth,
			Author:       c.Author,
			Content:      c.Content,
			LikeCount:    rc.Like,
			DislikeCount: rc.DisLike,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})

		kids := children[f.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], depth: f.depth + 1})
		}
	}
	return out
}

// BuildCommentTree nests comments under their parents, siblings by creation time.
func BuildCommentTree(comments []models.Comment, counts map[uint]ReactionCounts) []CommentNode {
	sorted := sortCommentsByCreation(comments)
	ids := make([]uint, len(sorted))
	byID := make(map[uint]models.Comment, len(sorted))
	for i, c := range sorted {
		ids[i] = c.ID
		byID[c.ID] = c
	}
	roots, children := childIndex(ids, func(i int) *uint { return sorted[i].ParentID })

	visited := make(map[uint]bool, len(sorted))
	var build func(id uint, root bool) CommentNode
	build = func(id uint, root bool) CommentNode {
		visited[id] = true
		c := byID[id]
		rc := counts[id]
		parentID := c.ParentID
		if root {
			parentID = nil
		}
		node := CommentNode{
			ID:           c.ID,
			PostID:       c.PostID,
			UserID:       c.UserID,
			ParentID:     parentID,
			Author:       c.Author,
			Content:      c.Content,
			LikeCount:    rc.Like,
			DislikeCount: rc.DisLike,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			Children:     []CommentNode{},
		}
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			node.Children = append(node.Children, build(child, false))
		}
		return node
	}

	out := make([]CommentNode, 0, len(roots))
	for _, id := range roots {
		out = append(out, build(id, true))
	}
	return out
}
