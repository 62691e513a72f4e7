package seed

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/board/config"
	"github.com/cppla/board/models"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// EssentialRoots are the root categories every board starts with.
var EssentialRoots = []string{"Notice", "Free Board", "Docker"}

// errRollback aborts the surrounding transaction of a dry run.
var errRollback = errors.New("seed: dry run rollback")

// Seeder applies and removes folder based seed data.
type Seeder struct {
	db  *gorm.DB
	cfg config.AppConfig
	log *zap.SugaredLogger
}

// New creates a Seeder. cfg supplies the admin account and its credentials.
func New(db *gorm.DB, cfg config.AppConfig) *Seeder {
	return &Seeder{db: db, cfg: cfg, log: utils.Sugar.Named("seed")}
}

// UpReport lists what Up did, or would do in a dry run.
type UpReport struct {
	DryRun          bool     `json:"dryRun"`
	Source          string   `json:"source"`
	Admin           string   `json:"admin"`
	RootsCreated    []string `json:"rootsCreated"`
	RootsExisting   []string `json:"rootsExisting"`
	ChildrenCreated []string `json:"childrenCreated"`
	PostsCreated    []string `json:"postsCreated"`
	PostsUpdated    []string `json:"postsUpdated"`
	PostsSkipped    []string `json:"postsSkipped"`
}

// DownOptions selects what Down removes.
type DownOptions struct {
	Root          string
	Posts         bool
	Categories    bool
	Admin         bool
	KeepEssential bool
	DryRun        bool
}

// Selected reports whether anything was chosen for removal.
func (o DownOptions) Selected() bool {
	return o.Posts || o.Categories || o.Admin
}

// DownReport lists what Down removed, or would remove in a dry run.
type DownReport struct {
	DryRun            bool     `json:"dryRun"`
	Source            string   `json:"source"`
	PostsDeleted      int      `json:"postsDeleted"`
	DeletedPosts      []string `json:"deletedPosts"`
	CategoriesDeleted int      `json:"categoriesDeleted"`
	DeletedCategories []string `json:"deletedCategories"`
	EssentialKept     []string `json:"essentialKept"`
	AdminDeleted      bool     `json:"adminDeleted"`
	Admin             string   `json:"admin"`
}

// inTx runs fn in one transaction and rolls it back when dryRun is set.
func (s *Seeder) inTx(dryRun bool, fn func(tx *gorm.DB) error) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		if dryRun {
			return errRollback
		}
		return nil
	})
	if errors.Is(err, errRollback) {
		return nil
	}
	return err
}

// Up ensures the admin account and the essential roots, then creates the
// category tree and posts described by the Markdown files under root.
func (s *Seeder) Up(root string, dryRun bool) (*UpReport, error) {
	docs, err := LoadDocuments(root)
	if err != nil {
		return nil, fmt.Errorf("load seed documents: %w", err)
	}
	report := &UpReport{
		DryRun:          dryRun,
		Source:          root,
		RootsCreated:    []string{},
		RootsExisting:   []string{},
		ChildrenCreated: []string{},
		PostsCreated:    []string{},
		PostsUpdated:    []string{},
		PostsSkipped:    []string{},
	}

	err = s.inTx(dryRun, func(tx *gorm.DB) error {
		categories := services.NewCategoryService(tx)
		cache := map[string]uint{}

		admin, err := s.ensureAdmin(tx, report)
		if err != nil {
			return err
		}
		for _, name := range EssentialRoots {
			_, created, err := categories.EnsurePath([]string{name}, cache)
			if err != nil {
				return err
			}
			if created {
				report.RootsCreated = append(report.RootsCreated, name)
			} else {
				report.RootsExisting = append(report.RootsExisting, name)
			}
		}
		if admin == nil {
			s.log.Warnw("no admin account, skipping posts", "email", s.cfg.AdminEmail)
			return nil
		}

		for _, doc := range docs {
			categoryID, err := s.ensureCategories(categories, cache, doc.CategoryPath, report)
			if err != nil {
				return err
			}
			if err := s.upsertPost(tx, admin, categoryID, doc, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Seeder) ensureAdmin(tx *gorm.DB, report *UpReport) (*models.User, error) {
	users := services.NewUserService(tx)
	admin, err := users.FindAdmin()
	if err != nil {
		return nil, err
	}
	if admin != nil {
		report.Admin = "existing: " + admin.Email
		return admin, nil
	}

	avail, err := users.CheckEmail(s.cfg.AdminEmail)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		s.log.Warnw("admin email belongs to a non-admin account", "email", s.cfg.AdminEmail)
		report.Admin = "email exists but not admin: " + s.cfg.AdminEmail
		return nil, nil
	}
	if s.cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD must be set to create the seed admin")
	}

	profile, err := users.CreateAdmin(services.SignUpInput{
		Email:    s.cfg.AdminEmail,
		Password: s.cfg.AdminPassword,
		Name:     s.cfg.AdminName,
		NickName: s.cfg.AdminNick,
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	report.Admin = "created: " + profile.Email
	return users.Get(profile.ID)
}

// ensureCategories creates path level by level so every new node is reported.
func (s *Seeder) ensureCategories(categories *services.CategoryService, cache map[string]uint, path []string, report *UpReport) (uint, error) {
	var id uint
	for i := range path {
		var created bool
		var err error
		id, created, err = categories.EnsurePath(path[:i+1], cache)
		if err != nil {
			return 0, err
		}
		if !created {
			continue
		}
		if i == 0 {
			report.RootsCreated = append(report.RootsCreated, path[0])
		} else {
			report.ChildrenCreated = append(report.ChildrenCreated, strings.Join(path[:i+1], " > "))
		}
	}
	return id, nil
}

func (s *Seeder) upsertPost(tx *gorm.DB, admin *models.User, categoryID uint, doc Document, report *UpReport) error {
	author := strings.TrimSpace(doc.Meta.AuthorNick)
	if author == "" {
		author = admin.NickName
	}
	createdAt := ParseCreatedAt(doc.Meta.CreatedAt)

	var existing models.Post
	err := tx.Where("title = ? AND category_id = ?", doc.Title, categoryID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		post := models.Post{
			UserID:     admin.ID,
			Author:     author,
			CategoryID: &categoryID,
			Title:      doc.Title,
			Content:    doc.Content,
		}
		if createdAt != nil {
			post.CreatedAt = *createdAt
		}
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return fmt.Errorf("create post %q: %w", doc.Title, err)
		}
		report.PostsCreated = append(report.PostsCreated, doc.Label())
		return nil
	case err != nil:
		return fmt.Errorf("find post %q: %w", doc.Title, err)
	}

	if !doc.Meta.Upsert() {
		report.PostsSkipped = append(report.PostsSkipped, doc.Label())
		return nil
	}
	updates := map[string]interface{}{"content": doc.Content, "author": author}
	if createdAt != nil {
		updates["created_at"] = *createdAt
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("update post %q: %w", doc.Title, err)
	}
	report.PostsUpdated = append(report.PostsUpdated, doc.Label())
	return nil
}

// Down hard-deletes what a previous Up created from opts.Root.
func (s *Seeder) Down(opts DownOptions) (*DownReport, error) {
	report := &DownReport{
		DryRun:            opts.DryRun,
		Source:            opts.Root,
		DeletedPosts:      []string{},
		DeletedCategories: []string{},
		EssentialKept:     []string{},
	}

	var docs []Document
	var dirs [][]string
	var err error
	if opts.Posts {
		if docs, err = LoadDocuments(opts.Root); err != nil {
			return nil, fmt.Errorf("load seed documents: %w", err)
		}
	}
	if opts.Categories {
		if dirs, err = CategoryDirs(opts.Root); err != nil {
			return nil, fmt.Errorf("scan seed folders: %w", err)
		}
	}

	err = s.inTx(opts.DryRun, func(tx *gorm.DB) error {
		for _, doc := range docs {
			cat, err := findCategoryByPath(tx, doc.CategoryPath)
			if err != nil {
				return err
			}
			if cat == nil {
				s.log.Debugw("category not found", "path", doc.CategoryPath)
				continue
			}
			var ids []uint
			if err := tx.Unscoped().Model(&models.Post{}).
				Where("title = ? AND category_id = ?", doc.Title, cat.ID).
				Pluck("id", &ids).Error; err != nil {
				return fmt.Errorf("find posts %q: %w", doc.Title, err)
			}
			if len(ids) == 0 {
				continue
			}
			n, err := purgePosts(tx, ids)
			if err != nil {
				return err
			}
			report.PostsDeleted += n
			report.DeletedPosts = append(report.DeletedPosts, doc.Label())
		}

		for _, path := range dirs {
			if err := s.dropCategory(tx, path, opts.KeepEssential, report); err != nil {
				return err
			}
		}

		if opts.Admin {
			return s.dropAdmin(tx, report)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Seeder) dropCategory(tx *gorm.DB, path []string, keepEssential bool, report *DownReport) error {
	cat, err := findCategoryByPath(tx, path)
	if err != nil || cat == nil {
		return err
	}
	if keepEssential && len(path) == 1 && isEssential(cat.Name) {
		report.EssentialKept = append(report.EssentialKept, cat.Name)
		return nil
	}

	var all []models.Category
	if err := tx.Unscoped().Find(&all).Error; err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	subtree := services.DescendantIDs(all, cat.ID)

	var postIDs []uint
	if err := tx.Unscoped().Model(&models.Post{}).Where("category_id IN ?", subtree).Pluck("id", &postIDs).Error; err != nil {
		return fmt.Errorf("find category posts: %w", err)
	}
	n, err := purgePosts(tx, postIDs)
	if err != nil {
		return err
	}
	report.PostsDeleted += n
	if err := tx.Unscoped().Where("id IN ?", subtree).Delete(&models.Category{}).Error; err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	utils.InvalidateByPrefix(utils.CachePrefixCategory)
	report.CategoriesDeleted++
	report.DeletedCategories = append(report.DeletedCategories, strings.Join(path, " > "))
	return nil
}

func (s *Seeder) dropAdmin(tx *gorm.DB, report *DownReport) error {
	admin, err := services.NewUserService(tx).FindAdmin()
	if err != nil {
		return err
	}
	if admin == nil {
		report.Admin = "none"
		return nil
	}
	if !strings.EqualFold(admin.Email, strings.TrimSpace(s.cfg.AdminEmail)) {
		s.log.Warnw("admin email mismatch, keeping account", "found", admin.Email, "expected", s.cfg.AdminEmail)
		report.Admin = "email mismatch: " + admin.Email
		return nil
	}

	var postIDs []uint
	if err := tx.Unscoped().Model(&models.Post{}).Where("user_id = ?", admin.ID).Pluck("id", &postIDs).Error; err != nil {
		return fmt.Errorf("find admin posts: %w", err)
	}
	if _, err := purgePosts(tx, postIDs); err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", admin.ID).Delete(&models.Reaction{}).Error; err != nil {
		return fmt.Errorf("delete admin reactions: %w", err)
	}
	if err := tx.Unscoped().Where("user_id = ?", admin.ID).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("delete admin comments: %w", err)
	}
	if err := tx.Unscoped().Delete(&models.User{}, admin.ID).Error; err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	report.AdminDeleted = true
	report.Admin = admin.Email
	return nil
}

func isEssential(name string) bool {
	for _, n := range EssentialRoots {
		if n == name {
			return true
		}
	}
	return false
}

// findCategoryByPath resolves a live category by its names from the root, or nil.
func findCategoryByPath(tx *gorm.DB, path []string) (*models.Category, error) {
	var cur *models.Category
	for _, name := range path {
		q := tx.Where("name = ?", name)
		if cur == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", cur.ID)
		}
		var c models.Category
		err := q.First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find category %q: %w", name, err)
		}
		cur = &c
	}
	return cur, nil
}

// purgePosts hard-deletes posts, their thread replies, comments and reactions.
// It returns the number of posts removed.
func purgePosts(tx *gorm.DB, ids []uint) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	seen := map[uint]bool{}
	all := make([]uint, 0, len(ids))
	frontier := utils.Unique(ids)
	for len(frontier) > 0 {
		for _, id := range frontier {
			seen[id] = true
			all = append(all, id)
		}
		var replies []uint
		if err := tx.Unscoped().Model(&models.Post{}).Where("parent_post_id IN ?", frontier).Pluck("id", &replies).Error; err != nil {
			return 0, fmt.Errorf("find thread replies: %w", err)
		}
		frontier = frontier[:0]
		for _, id := range utils.Unique(replies) {
			if !seen[id] {
				frontier = append(frontier, id)
			}
		}
	}

	var commentIDs []uint
	if err := tx.Unscoped().Model(&models.Comment{}).Where("post_id IN ?", all).Pluck("id", &commentIDs).Error; err != nil {
		return 0, fmt.Errorf("find comments: %w", err)
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Reaction{}).Error; err != nil {
			return 0, fmt.Errorf("delete comment reactions: %w", err)
		}
	}
	if err := tx.Where("post_id IN ?", all).Delete(&models.Reaction{}).Error; err != nil {
		return 0, fmt.Errorf("delete post reactions: %w", err)
	}
	if err := tx.Unscoped().Where("post_id IN ?", all).Delete(&models.Comment{}).Error; err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	if err := tx.Unscoped().Where("id IN ?", all).Delete(&models.Post{}).Error; err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	return len(all), nil
}
