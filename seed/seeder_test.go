package seed

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/board/config"
	"github.com/cppla/board/models"
	"github.com/cppla/board/testutil"
)

func newSeeder(t *testing.T) (*Seeder, *gorm.DB, string) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := config.Get()
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "adminpass"
	cfg.AdminName = "Administrator"
	cfg.AdminNick = "admin"

	root := t.TempDir()
	writeFile(t, root, "Docker/Intro/01-getting_started.md", "# Getting started\n")
	writeFile(t, root, "Docker/Intro/compose.md",
		"---\ntitle: Compose basics\nauthorNick: whale\ncreatedAt: 2024-05-01\nupdateMode: upsert\n---\ncompose v1\n")
	writeFile(t, root, "notes.md", "---\ncategoryPath: [Misc, Notes]\n---\nnotes\n")
	return New(db, cfg), db, root
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Unscoped().Model(model).Count(&n).Error)
	return n
}

func TestUpCreatesAdminCategoriesAndPosts(t *testing.T) {
	s, db, root := newSeeder(t)

	report, err := s.Up(root, false)
	require.NoError(t, err)

	assert.Equal(t, "created: admin@example.com", report.Admin)
	assert.Equal(t, []string{"Notice", "Free Board", "Docker", "Misc"}, report.RootsCreated)
	assert.Equal(t, []string{"Docker > Intro", "Misc > Notes"}, report.ChildrenCreated)
	assert.ElementsMatch(t, []string{
		"[Docker > Intro] getting started",
		"[Docker > Intro] Compose basics",
		"[Misc > Notes] notes",
	}, report.PostsCreated)

	var compose models.Post
	require.NoError(t, db.Where("title = ?", "Compose basics").First(&compose).Error)
	assert.Equal(t, "whale", compose.Author)
	assert.Equal(t, 2024, compose.CreatedAt.Year())

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, admin.ID, compose.UserID)
}

func TestUpIsIdempotentAndUpserts(t *testing.T) {
	s, db, root := newSeeder(t)
	_, err := s.Up(root, false)
	require.NoError(t, err)

	writeFile(t, root, "Docker/Intro/compose.md",
		"---\ntitle: Compose basics\nupdateMode: upsert\n---\ncompose v2\n")
	writeFile(t, root, "Docker/Intro/01-getting_started.md", "changed but not upserted\n")

	report, err := s.Up(root, false)
	require.NoError(t, err)
	assert.Equal(t, "existing: admin@example.com", report.Admin)
	assert.Empty(t, report.RootsCreated)
	assert.Equal(t, []string{"Notice", "Free Board", "Docker"}, report.RootsExisting)
	assert.Empty(t, report.PostsCreated)
	assert.Equal(t, []string{"[Docker > Intro] Compose basics"}, report.PostsUpdated)
	assert.Len(t, report.PostsSkipped, 2)

	var compose models.Post
	require.NoError(t, db.Where("title = ?", "Compose basics").First(&compose).Error)
	assert.Equal(t, "compose v2\n", compose.Content)
	assert.Equal(t, "admin", compose.Author)
	assert.Equal(t, int64(3), count(t, db, &models.Post{}))
}

func TestUpDryRunWritesNothing(t *testing.T) {
	s, db, root := newSeeder(t)

	report, err := s.Up(root, true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.PostsCreated, 3)

	assert.Zero(t, count(t, db, &models.Post{}))
	assert.Zero(t, count(t, db, &models.Category{}))
	assert.Zero(t, count(t, db, &models.User{}))
}

func TestUpWithoutAdminPassword(t *testing.T) {
	s, _, root := newSeeder(t)
	s.cfg.AdminPassword = ""
	_, err := s.Up(root, false)
	assert.Error(t, err)
}

func TestDownRemovesSeededData(t *testing.T) {
	s, db, root := newSeeder(t)
	_, err := s.Up(root, false)
	require.NoError(t, err)

	var post models.Post
	require.NoError(t, db.Where("title = ?", "getting started").First(&post).Error)
	reader := testutil.CreateUser(t, db, "reader@example.com", "reader", models.RoleUser)
	comment := models.Comment{PostID: post.ID, UserID: reader.ID, Author: "reader", Content: "nice"}
	require.NoError(t, db.Omit("Post", "User", "Parent").Create(&comment).Error)
	require.NoError(t, db.Create(&models.Reaction{UserID: reader.ID, CommentID: &comment.ID, ReactionType: models.ReactionLike}).Error)
	require.NoError(t, db.Create(&models.Reaction{UserID: reader.ID, PostID: &post.ID, ReactionType: models.ReactionLike}).Error)

	dry, err := s.Down(DownOptions{Root: root, Posts: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, dry.PostsDeleted)
	assert.Equal(t, int64(3), count(t, db, &models.Post{}))

	report, err := s.Down(DownOptions{Root: root, Posts: true, Categories: true, Admin: true, KeepEssential: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.PostsDeleted)
	assert.Equal(t, []string{"Docker > Intro"}, report.DeletedCategories)
	assert.Equal(t, []string{"Docker"}, report.EssentialKept)
	assert.True(t, report.AdminDeleted)

	assert.Zero(t, count(t, db, &models.Post{}))
	assert.Zero(t, count(t, db, &models.Comment{}))
	assert.Zero(t, count(t, db, &models.Reaction{}))

	var names []string
	require.NoError(t, db.Model(&models.Category{}).Order("id").Pluck("name", &names).Error)
	// Misc comes from front matter only, so no folder removes it
	assert.Equal(t, []string{"Notice", "Free Board", "Docker", "Misc", "Notes"}, names)
	assert.Equal(t, int64(1), count(t, db, &models.User{}), "only the reader remains")
}

func TestDownKeepsAdminWithOtherEmail(t *testing.T) {
	s, db, root := newSeeder(t)
	testutil.CreateUser(t, db, "boss@example.com", "boss", models.RoleAdmin)

	report, err := s.Down(DownOptions{Root: root, Admin: true})
	require.NoError(t, err)
	assert.False(t, report.AdminDeleted)
	assert.Equal(t, "email mismatch: boss@example.com", report.Admin)
}

func TestReportsRender(t *testing.T) {
	up := &UpReport{Admin: "created: a@b.c", RootsCreated: []string{"Docker"}, PostsCreated: []string{"[Docker] x"}, DryRun: true}
	var buf bytes.Buffer
	up.WriteText(&buf)
	assert.Contains(t, buf.String(), "roots created: Docker")
	assert.Contains(t, buf.String(), "dry-run")

	buf.Reset()
	down := &DownReport{PostsDeleted: 2, DeletedCategories: []string{"A > B"}, CategoriesDeleted: 1}
	down.WriteText(&buf)
	assert.Contains(t, buf.String(), "posts deleted: 2")
	assert.Contains(t, buf.String(), "- A > B")

	b, err := json.Marshal(up)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"rootsCreated":["Docker"]`)
}
