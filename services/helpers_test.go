package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/testutil"
)

func strPtr(s string) *string { return &s }

func identityOf(u models.User) Identity {
	return Identity{ID: u.ID, Email: u.Email, NickName: u.NickName}
}

func requireAppError(t *testing.T, err error, status int) *AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := AsAppError(err)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.Status, appErr.Message)
	return appErr
}

type fixture struct {
	db         *gorm.DB
	categories *CategoryService
	posts      *PostService
	comments   *CommentService
	reactions  *ReactionService
	alice      models.User
	bob        models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &fixture{
		db:         db,
		categories: NewCategoryService(db),
		posts:      NewPostService(db),
		comments:   NewCommentService(db),
		reactions:  NewReactionService(db),
		alice:      testutil.CreateUser(t, db, "alice@example.com", "alice", models.RoleUser),
		bob:        testutil.CreateUser(t, db, "bob@example.com", "bob", models.RoleUser),
	}
}

func (f *fixture) category(t *testing.T, name string, parent *uint) uint {
	t.Helper()
	c, err := f.categories.Create(CategoryInput{Name: strPtr(name), ParentID: parent})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) post(t *testing.T, author models.User, categoryID uint, title string) uint {
	t.Helper()
	created, err := f.posts.Create(identityOf(author), PostInput{
		CategoryID: uintPtr(categoryID),
		Title:      strPtr(title),
		Content:    strPtr(title + " body"),
	})
	require.NoError(t, err)
	return created.PostID
}
