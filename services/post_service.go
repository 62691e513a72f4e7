package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// PostInput carries the fields accepted when creating or editing a post.
type PostInput struct {
	CategoryID   *uint
	ParentPostID *uint
	Title        *string
	Content      *string
}

// PostFilter selects posts for listing.
type PostFilter struct {
	CategoryID         *uint
	IncludeDescendants bool
	// ParentPostID 0 selects top-level posts only; N selects replies of N.
	ParentPostID *uint
	Search       string
	Page         Page
}

// CategoryRef is the short category shape embedded in post views.
type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PostRef is the short post shape used for parents and thread replies.
type PostRef struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostListItem is one row of a post listing.
type PostListItem struct {
	ID            uint         `json:"id"`
	UserID        uint         `json:"userId"`
	Title         string       `json:"title"`
	Author        string       `json:"author"`
	Content       string       `json:"content"`
	CategoryID    *uint        `json:"categoryId"`
	Category      *CategoryRef `json:"category"`
	ParentPostID  *uint        `json:"parentPostId"`
	ViewCount     int64        `json:"viewCount"`
	ChildrenCount int64        `json:"childrenCount"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// PostPage is a page of posts plus pagination metadata.
type PostPage struct {
	Posts []PostListItem `json:"posts"`
	Meta  PageMeta       `json:"meta"`
}

// PostDetail is a single post with its reactions, thread replies and flattened comments.
type PostDetail struct {
	ID            uint          `json:"id"`
	UserID        uint          `json:"userId"`
	Title         string        `json:"title"`
	Author        string        `json:"author"`
	Content       string        `json:"content"`
	ContentHTML   string        `json:"contentHtml"`
	CategoryID    *uint         `json:"categoryId"`
	Category      *CategoryRef  `json:"category"`
	ParentPostID  *uint         `json:"parentPostId"`
	ParentPost    *PostRef      `json:"parentPost"`
	LikeCounts    int64         `json:"likeCounts"`
	DislikeCounts int64         `json:"dislikeCounts"`
	ViewCount     int64         `json:"viewCount"`
	CommentsCount int           `json:"commentsCount"`
	Comments      []FlatComment `json:"comments"`
	ChildrenPosts []PostRef     `json:"childrenPosts"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// CreatedPost is returned after a successful create.
type CreatedPost struct {
	PostID   uint `json:"postId"`
	IsThread bool `json:"isThread"`
}

// PostService manages posts and thread replies.
type PostService struct {
	db         *gorm.DB
	categories *CategoryService
	reactions  *ReactionService
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		db:         db,
		categories: NewCategoryService(db),
		reactions:  NewReactionService(db),
	}
}

func postNotFound(id uint) *AppError {
	return NotFound(40440, fmt.Sprintf("post %d not found", id))
}

func (s *PostService) load(id uint) (*models.Post, error) {
	var p models.Post
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, postNotFound(id), "load post")
	}
	return &p, nil
}

// Create adds a post under a category, or a thread reply under a parent post.
// A reply without an explicit category inherits the parent's.
func (s *PostService) Create(id Identity, in PostInput) (*CreatedPost, error) {
	categoryID := normalizeParent(in.CategoryID)
	parentPostID := normalizeParent(in.ParentPostID)
	if categoryID == nil && parentPostID == nil {
		return nil, BadRequest(40040, "either categoryId or parentPostId is required")
	}
	title, content, err := cleanPostText(in.Title, in.Content, true)
	if err != nil {
		return nil, err
	}

	if parentPostID != nil {
		var parent models.Post
		if err := s.db.First(&parent, *parentPostID).Error; err != nil {
			return nil, notFoundOr(err, NotFound(40441, fmt.Sprintf("parent post %d not found", *parentPostID)), "load parent post")
		}
		if categoryID == nil {
			categoryID = parent.CategoryID
		}
	}
	if categoryID != nil {
		if _, err := s.categories.load(s.db, *categoryID); err != nil {
			explicit := in.CategoryID != nil && *in.CategoryID != 0
			if _, ok := AsAppError(err); !ok || explicit {
				return nil, err
			}
			// the parent's category is gone
			categoryID = nil
		}
	}
	if categoryID == nil {
		return nil, BadRequest(40041, "a valid category must be specified")
	}

	post := models.Post{
		UserID:       id.ID,
		Author:       id.NickName,
		CategoryID:   categoryID,
		ParentPostID: parentPostID,
		Title:        title,
		Content:      content,
	}
	if err := s.db.Omit("User", "Category", "ParentPost").Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &CreatedPost{PostID: post.ID, IsThread: parentPostID != nil}, nil
}

func cleanPostText(title, content *string, required bool) (string, string, error) {
	var t, c string
	if title != nil {
		t = utils.SanitizePlain(*title)
		if t == "" {
			return "", "", BadRequest(40042, "title cannot be empty")
		}
	} else if required {
		return "", "", BadRequest(40042, "title cannot be empty")
	}
	if content != nil {
		c = strings.TrimSpace(*content)
		if c == "" {
			return "", "", BadRequest(40043, "content cannot be empty")
		}
	} else if required {
		return "", "", BadRequest(40043, "content cannot be empty")
	}
	return t, c, nil
}

// Get lists posts matching filter, newest first.
func (s *PostService) Get(filter PostFilter) (*PostPage, error) {
	var categoryIDs []uint
	if filter.CategoryID != nil {
		categoryIDs = []uint{*filter.CategoryID}
		if filter.IncludeDescendants {
			ids, err := s.categories.DescendantIDs(*filter.CategoryID)
			if err != nil {
				return nil, err
			}
			categoryIDs = ids
		}
	}
	search := strings.TrimSpace(filter.Search)

	return listPosts(s.db, func(q *gorm.DB) *gorm.DB {
		if categoryIDs != nil {
			q = q.Where("posts.category_id IN ?", categoryIDs)
		}
		if filter.ParentPostID != nil {
			if *filter.ParentPostID == 0 {
				q = q.Where("posts.parent_post_id IS NULL")
			} else {
				q = q.Where("posts.parent_post_id = ?", *filter.ParentPostID)
			}
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("posts.title LIKE ? OR posts.content LIKE ?", like, like)
		}
		return q
	}, filter.Page)
}

// ListByUser lists one user's posts, newest first.
func (s *PostService) ListByUser(userID uint, page Page) (*PostPage, error) {
	return listPosts(s.db, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.user_id = ?", userID)
	}, page)
}

func listPosts(db *gorm.DB, scope func(*gorm.DB) *gorm.DB, page Page) (*PostPage, error) {
	if page.Limit == 0 {
		page = NewPage(page.Page, page.Limit)
	}

	var total int64
	if err := scope(db.Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	var posts []models.Post
	err := scope(db.Model(&models.Post{})).
		Preload("Category").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Offset(page.offset()).
		Limit(page.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	children, err := childrenCounts(db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]PostListItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, PostListItem{
			ID:            p.ID,
			UserID:        p.UserID,
			Title:         p.Title,
			Author:        p.Author,
			Content:       p.Content,
			CategoryID:    p.CategoryID,
			Category:      categoryRef(p.Category),
			ParentPostID:  p.ParentPostID,
			ViewCount:     p.ViewCount,
			ChildrenCount: children[p.ID],
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		})
	}
	return &PostPage{Posts: items, Meta: newPageMeta(total, page)}, nil
}

func childrenCounts(db *gorm.DB, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ParentPostID uint
		N            int64
	}
	err := db.Model(&models.Post{}).
		Select("parent_post_id, COUNT(*) AS n").
		Where("parent_post_id IN ?", ids).
		Group("parent_post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count thread replies: %w", err)
	}
	for _, r := range rows {
		out[r.ParentPostID] = r.N
	}
	return out, nil
}

func categoryRef(c *models.Category) *CategoryRef {
	if c == nil || c.ID == 0 {
		return nil
	}
	return &CategoryRef{ID: c.ID, Name: c.Name}
}

// FindOne returns a post with its category, parent, thread replies, reaction
// totals and the flattened comment thread.
func (s *PostService) FindOne(id uint) (*PostDetail, error) {
	var post models.Post
	err := s.db.Preload("Category").Preload("ParentPost").First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, postNotFound(id), "load post")
	}

	var comments []models.Comment
	if err := s.db.Where("post_id = ?", id).Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	commentIDs := make([]uint, len(comments))
	for i, c := range comments {
		commentIDs[i] = c.ID
	}
	commentCounts, err := s.reactions.CountsFor(TargetComment, commentIDs)
	if err != nil {
		return nil, err
	}
	postCounts, err := s.reactions.Counts(ReactionTarget{Kind: TargetPost, ID: id})
	if err != nil {
		return nil, err
	}

	var replies []models.Post
	if err := s.db.Where("parent_post_id = ?", id).Order("created_at ASC").Order("id ASC").Find(&replies).Error; err != nil {
		return nil, fmt.Errorf("load thread replies: %w", err)
	}
	childrenPosts := make([]PostRef, 0, len(replies))
	for _, r := range replies {
		childrenPosts = append(childrenPosts, PostRef{ID: r.ID, Title: r.Title, Author: r.Author, CreatedAt: r.CreatedAt})
	}

	flat := FlattenComments(comments, commentCounts)
	detail := &PostDetail{
		ID:            post.ID,
		UserID:        post.UserID,
		Title:         post.Title,
		Author:        post.Author,
		Content:       post.Content,
		ContentHTML:   utils.RenderMarkdown(post.Content),
		CategoryID:    post.CategoryID,
		Category:      categoryRef(post.Category),
		ParentPostID:  post.ParentPostID,
		LikeCounts:    postCounts.Like,
		DislikeCounts: postCounts.DisLike,
		ViewCount:     post.ViewCount,
		CommentsCount: len(flat),
		Comments:      flat,
		ChildrenPosts: childrenPosts,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
	if post.ParentPost != nil && post.ParentPost.ID != 0 {
		detail.ParentPost = &PostRef{
			ID:        post.ParentPost.ID,
			Title:     post.ParentPost.Title,
			Author:    post.ParentPost.Author,
			CreatedAt: post.ParentPost.CreatedAt,
		}
	}
	return detail, nil
}

// Update edits title, content or category of a post owned by the caller.
func (s *PostService) Update(id Identity, postID uint, in PostInput) error {
	post, err := s.load(postID)
	if err != nil {
		return err
	}
	if post.UserID != id.ID {
		return Unauthorized(40140, "only the author can edit this post")
	}
	title, content, err := cleanPostText(in.Title, in.Content, false)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = title
	}
	if in.Content != nil {
		updates["content"] = content
	}
	if in.CategoryID != nil {
		if _, err := s.categories.load(s.db, *in.CategoryID); err != nil {
			return err
		}
		updates["category_id"] = *in.CategoryID
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.Model(post).Updates(updates).Error; err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete soft-deletes a post owned by the caller.
func (s *PostService) Delete(id Identity, postID uint) error {
	post, err := s.load(postID)
	if err != nil {
		return err
	}
	if post.UserID != id.ID {
		return Unauthorized(40141, "only the author can delete this post")
	}
	if err := s.db.Delete(post).Error; err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// RecordView bumps the view counter. The counter is advisory.
func (s *PostService) RecordView(postID uint) error {
	err := s.db.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}
