package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// CategoryInput carries create and update fields. Nil means "not provided".
type CategoryInput struct {
	Name     *string
	ParentID *uint
}

// CategorySummary is the flat view of a single category.
type CategorySummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	ParentID *uint  `json:"parentId"`
}

// CategoryDetail is a category with its direct children and the path from the root.
type CategoryDetail struct {
	CategorySummary
	Children []CategorySummary `json:"children"`
	Path     []CategorySummary `json:"path"`
}

// CategoryService manages the category tree.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func summarize(c models.Category) CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name, ParentID: c.ParentID}
}

func (s *CategoryService) all(tx *gorm.DB) ([]models.Category, error) {
	var cats []models.Category
	if err := tx.Order("id ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return cats, nil
}

func (s *CategoryService) load(tx *gorm.DB, id uint) (*models.Category, error) {
	var c models.Category
	if err := tx.First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, NotFound(40430, fmt.Sprintf("category %d not found", id)), "load category")
	}
	return &c, nil
}

func (s *CategoryService) siblingNameTaken(tx *gorm.DB, name string, parentID *uint, exclude uint) (bool, error) {
	q := tx.Model(&models.Category{}).Where("name = ?", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if exclude != 0 {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check sibling name: %w", err)
	}
	return n > 0, nil
}

func normalizeParent(p *uint) *uint {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}

// Create inserts a root category, or a child when ParentID is set.
func (s *CategoryService) Create(in CategoryInput) (*CategorySummary, error) {
	if in.Name == nil {
		return nil, BadRequest(40030, "name is required")
	}
	name := utils.SanitizePlain(*in.Name)
	if name == "" {
		return nil, BadRequest(40030, "name is required")
	}
	parentID := normalizeParent(in.ParentID)

	var created models.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			if _, err := s.load(tx, *parentID); err != nil {
				return err
			}
		}
		taken, err := s.siblingNameTaken(tx, name, parentID, 0)
		if err != nil {
			return err
		}
		if taken {
			return BadRequest(40031, fmt.Sprintf("category %q already exists here", name)).WithErrorCode("CATEGORY_ALREADY_EXISTS")
		}
		created = models.Category{Name: name, ParentID: parentID}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.InvalidateByPrefix(utils.CachePrefixCategory)
	out := summarize(created)
	return &out, nil
}

// List returns the whole live tree, roots and children ordered by id.
func (s *CategoryService) List() ([]CategoryNode, error) {
	var cached []CategoryNode
	if utils.CacheGetJSON(utils.CacheKeyCategoryTree, &cached) {
		return cached, nil
	}
	cats, err := s.all(s.db)
	if err != nil {
		return nil, err
	}
	tree := BuildCategoryTree(cats)
	utils.CacheSetJSON(utils.CacheKeyCategoryTree, tree, 0)
	return tree, nil
}

// Get returns one category with its direct children and ancestor path, root first.
func (s *CategoryService) Get(id uint) (*CategoryDetail, error) {
	cats, err := s.all(s.db)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	target, ok := byID[id]
	if !ok {
		return nil, NotFound(40430, fmt.Sprintf("category %d not found", id))
	}

	detail := &CategoryDetail{CategorySummary: summarize(target), Children: []CategorySummary{}}
	for _, c := range cats {
		if c.ParentID != nil && *c.ParentID == id {
			detail.Children = append(detail.Children, summarize(c))
		}
	}

	seen := map[uint]bool{}
	var path []CategorySummary
	cur := target
	for !seen[cur.ID] {
		seen[cur.ID] = true
		path = append(path, summarize(cur))
		if cur.ParentID == nil {
			break
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	detail.Path = path
	return detail, nil
}

// Update renames and/or moves a category. A zero ParentID moves it to the root.
// Moving a category below itself or one of its descendants is rejected.
func (s *CategoryService) Update(id uint, in CategoryInput) (*CategorySummary, error) {
	var updated models.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cat, err := s.load(tx, id)
		if err != nil {
			return err
		}

		name := cat.Name
		if in.Name != nil {
			name = utils.SanitizePlain(*in.Name)
			if name == "" {
				return BadRequest(40030, "name is required")
			}
		}
		parentID := cat.ParentID
		if in.ParentID != nil {
			parentID = normalizeParent(in.ParentID)
		}

		if parentID != nil {
			if _, err := s.load(tx, *parentID); err != nil {
				return err
			}
			cats, err := s.all(tx)
			if err != nil {
				return err
			}
			for _, d := range DescendantIDs(cats, id) {
				if d == *parentID {
					return BadRequest(40032, "a category cannot be moved under itself or its descendants")
				}
			}
		}

		taken, err := s.siblingNameTaken(tx, name, parentID, id)
		if err != nil {
			return err
		}
		if taken {
			return BadRequest(40031, fmt.Sprintf("category %q already exists here", name)).WithErrorCode("CATEGORY_ALREADY_EXISTS")
		}

		if err := tx.Model(cat).Select("name", "parent_id").Updates(map[string]interface{}{
			"name":      name,
			"parent_id": parentID,
		}).Error; err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		cat.Name = name
		cat.ParentID = parentID
		updated = *cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.InvalidateByPrefix(utils.CachePrefixCategory)
	out := summarize(updated)
	return &out, nil
}

// Remove soft-deletes a category. With live children it is rejected unless
// cascade is set, in which case the whole subtree and its posts go together.
func (s *CategoryService) Remove(id uint, cascade bool) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, id); err != nil {
			return err
		}
		cats, err := s.all(tx)
		if err != nil {
			return err
		}
		ids := DescendantIDs(cats, id)
		if len(ids) > 1 && !cascade {
			return BadRequest(40033, "category has child categories; delete them first or pass cascade=true").WithErrorCode("CATEGORY_HAS_CHILDREN")
		}
		if err := tx.Where("category_id IN ?", ids).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("delete category posts: %w", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Category{}).Error; err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.InvalidateByPrefix(utils.CachePrefixCategory)
	return nil
}

// DescendantIDs returns id and every live category below it.
func (s *CategoryService) DescendantIDs(id uint) ([]uint, error) {
	cats, err := s.all(s.db)
	if err != nil {
		return nil, err
	}
	return DescendantIDs(cats, id), nil
}

// PostsByCategory lists posts anywhere in the category's subtree, newest first.
func (s *CategoryService) PostsByCategory(id uint, page Page) (*PostPage, error) {
	if _, err := s.load(s.db, id); err != nil {
		return nil, err
	}
	ids, err := s.DescendantIDs(id)
	if err != nil {
		return nil, err
	}
	return listPosts(s.db, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.category_id IN ?", ids)
	}, page)
}

// EnsurePath returns the category at the end of names, creating missing levels.
// cache is keyed by parent id and name and may be shared across calls.
func (s *CategoryService) EnsurePath(names []string, cache map[string]uint) (uint, bool, error) {
	var parent *uint
	var id uint
	created := false
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := fmt.Sprintf("%d/%s", derefUint(parent), name)
		if cached, ok := cache[key]; ok {
			id = cached
			parent = &cached
			continue
		}

		var c models.Category
		q := s.db.Where("name = ?", name)
		if parent == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parent)
		}
		err := q.First(&c).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c = models.Category{Name: name, ParentID: parent}
			if err := s.db.Create(&c).Error; err != nil {
				return 0, false, fmt.Errorf("create category %q: %w", name, err)
			}
			created = true
		case err != nil:
			return 0, false, fmt.Errorf("find category %q: %w", name, err)
		}
		cache[key] = c.ID
		id = c.ID
		next := c.ID
		parent = &next
	}
	if created {
		utils.InvalidateByPrefix(utils.CachePrefixCategory)
	}
	return id, created, nil
}

func derefUint(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}
