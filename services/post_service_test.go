package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/board/models"
)

func TestPostCreateUnderCategory(t *testing.T) {
	f := newFixture(t)
	docker := f.category(t, "Docker", nil)
	intro := f.category(t, "Intro", uintPtr(docker))

	created, err := f.posts.Create(identityOf(f.alice), PostInput{
		CategoryID: uintPtr(intro),
		Title:      strPtr("Hello"),
		Content:    strPtr("**bold** words"),
	})
	require.NoError(t, err)
	assert.False(t, created.IsThread)

	detail, err := f.posts.FindOne(created.PostID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", detail.Title)
	assert.Equal(t, "alice", detail.Author)
	assert.Equal(t, 0, detail.CommentsCount)
	assert.NotNil(t, detail.Comments)
	assert.Empty(t, detail.Comments)
	assert.Empty(t, detail.ChildrenPosts)
	require.NotNil(t, detail.Category)
	assert.Equal(t, "Intro", detail.Category.Name)
	assert.Contains(t, detail.ContentHTML, "<strong>bold</strong>")
}

func TestPostCreateValidation(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	me := identityOf(f.alice)

	_, err := f.posts.Create(me, PostInput{Title: strPtr("t"), Content: strPtr("c")})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.posts.Create(me, PostInput{CategoryID: uintPtr(999), Title: strPtr("t"), Content: strPtr("c")})
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.posts.Create(me, PostInput{ParentPostID: uintPtr(999), Title: strPtr("t"), Content: strPtr("c")})
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.posts.Create(me, PostInput{CategoryID: uintPtr(cat), Title: strPtr("<b></b>"), Content: strPtr("c")})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.posts.Create(me, PostInput{CategoryID: uintPtr(cat), Title: strPtr("t")})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestPostThreadReplyInheritsCategory(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	other := f.category(t, "Other", nil)
	parent := f.post(t, f.alice, cat, "parent")

	reply, err := f.posts.Create(identityOf(f.bob), PostInput{
		ParentPostID: uintPtr(parent),
		Title:        strPtr("reply"),
		Content:      strPtr("reply body"),
	})
	require.NoError(t, err)
	assert.True(t, reply.IsThread)

	detail, err := f.posts.FindOne(reply.PostID)
	require.NoError(t, err)
	require.NotNil(t, detail.CategoryID)
	assert.Equal(t, cat, *detail.CategoryID)
	require.NotNil(t, detail.ParentPost)
	assert.Equal(t, parent, detail.ParentPost.ID)

	override, err := f.posts.Create(identityOf(f.bob), PostInput{
		ParentPostID: uintPtr(parent),
		CategoryID:   uintPtr(other),
		Title:        strPtr("moved reply"),
		Content:      strPtr("body"),
	})
	require.NoError(t, err)
	overrideDetail, err := f.posts.FindOne(override.PostID)
	require.NoError(t, err)
	assert.Equal(t, other, *overrideDetail.CategoryID)

	parentDetail, err := f.posts.FindOne(parent)
	require.NoError(t, err)
	require.Len(t, parentDetail.ChildrenPosts, 2)
	assert.Equal(t, reply.PostID, parentDetail.ChildrenPosts[0].ID)
}

func TestPostGetFilters(t *testing.T) {
	f := newFixture(t)
	docker := f.category(t, "Docker", nil)
	intro := f.category(t, "Intro", uintPtr(docker))
	top := f.post(t, f.alice, docker, "docker top")
	f.post(t, f.alice, intro, "intro post")
	_, err := f.posts.Create(identityOf(f.bob), PostInput{ParentPostID: uintPtr(top), Title: strPtr("thread"), Content: strPtr("x")})
	require.NoError(t, err)

	all, err := f.posts.Get(PostFilter{Page: NewPage(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Meta.Total)
	assert.Equal(t, 1, all.Meta.Page)
	assert.Equal(t, 10, all.Meta.Limit)
	assert.Equal(t, "thread", all.Posts[0].Title, "newest first")

	onlyDocker, err := f.posts.Get(PostFilter{CategoryID: uintPtr(docker), Page: NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), onlyDocker.Meta.Total)

	subtree, err := f.posts.Get(PostFilter{CategoryID: uintPtr(docker), IncludeDescendants: true, Page: NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), subtree.Meta.Total)

	topLevel, err := f.posts.Get(PostFilter{ParentPostID: uintPtr(0), Page: NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), topLevel.Meta.Total)
	for _, p := range topLevel.Posts {
		assert.Nil(t, p.ParentPostID)
		if p.ID == top {
			assert.Equal(t, int64(1), p.ChildrenCount)
		}
	}

	replies, err := f.posts.Get(PostFilter{ParentPostID: uintPtr(top), Page: NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, replies.Posts, 1)
	assert.Equal(t, "thread", replies.Posts[0].Title)

	search, err := f.posts.Get(PostFilter{Search: "intro", Page: NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, search.Posts, 1)
	assert.Equal(t, "intro post", search.Posts[0].Title)

	paged, err := f.posts.Get(PostFilter{Page: NewPage(2, 2)})
	require.NoError(t, err)
	assert.Len(t, paged.Posts, 1)
	assert.Equal(t, 2, paged.Meta.TotalPages)
}

func TestPostUpdateAndDeleteRequireOwner(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	other := f.category(t, "Other", nil)
	id := f.post(t, f.alice, cat, "mine")

	err := f.posts.Update(identityOf(f.bob), id, PostInput{Title: strPtr("hijack")})
	requireAppError(t, err, http.StatusUnauthorized)
	err = f.posts.Delete(identityOf(f.bob), id)
	requireAppError(t, err, http.StatusUnauthorized)

	err = f.posts.Update(identityOf(f.alice), id, PostInput{CategoryID: uintPtr(999)})
	requireAppError(t, err, http.StatusNotFound)

	require.NoError(t, f.posts.Update(identityOf(f.alice), id, PostInput{Title: strPtr("renamed"), CategoryID: uintPtr(other)}))
	detail, err := f.posts.FindOne(id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", detail.Title)
	assert.Equal(t, other, *detail.CategoryID)

	require.NoError(t, f.posts.Delete(identityOf(f.alice), id))
	_, err = f.posts.FindOne(id)
	requireAppError(t, err, http.StatusNotFound)
	err = f.posts.Delete(identityOf(f.alice), id)
	requireAppError(t, err, http.StatusNotFound)

	var n int64
	require.NoError(t, f.db.Unscoped().Model(&models.Post{}).Where("id = ?", id).Count(&n).Error)
	assert.Equal(t, int64(1), n, "delete is soft")
}

func TestPostRecordViewAndReactions(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	id := f.post(t, f.alice, cat, "viewed")

	require.NoError(t, f.posts.RecordView(id))
	require.NoError(t, f.posts.RecordView(id))
	_, err := f.reactions.Toggle(f.alice.ID, ReactionTarget{Kind: TargetPost, ID: id}, models.ReactionLike)
	require.NoError(t, err)
	_, err = f.reactions.Toggle(f.bob.ID, ReactionTarget{Kind: TargetPost, ID: id}, models.ReactionDisLike)
	require.NoError(t, err)

	detail, err := f.posts.FindOne(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.ViewCount)
	assert.Equal(t, int64(1), detail.LikeCounts)
	assert.Equal(t, int64(1), detail.DislikeCounts)
}

func TestPostListByUser(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	f.post(t, f.alice, cat, "a1")
	f.post(t, f.alice, cat, "a2")
	f.post(t, f.bob, cat, "b1")

	page, err := f.posts.ListByUser(f.alice.ID, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.Total)
	for _, p := range page.Posts {
		assert.Equal(t, f.alice.ID, p.UserID)
	}
}

func TestTextIsStoredAsSent(t *testing.T) {
	f := newFixture(t)
	qa := f.category(t, "Q&A", nil)
	again, _, err := f.categories.EnsurePath([]string{"Q&A"}, map[string]uint{})
	require.NoError(t, err)
	assert.Equal(t, qa, again, "seeded and API-created names must match")

	title := `Tom & Jerry's "guide"`
	body := "> quoted line\n\n```go\nif a < b && c > d {}\n```\n\n<script>alert(1)</script>"
	created, err := f.posts.Create(identityOf(f.alice), PostInput{
		CategoryID: uintPtr(qa),
		Title:      strPtr(" <i>" + title + "</i> "),
		Content:    strPtr(body),
	})
	require.NoError(t, err)

	detail, err := f.posts.FindOne(created.PostID)
	require.NoError(t, err)
	assert.Equal(t, title, detail.Title)
	assert.Equal(t, body, detail.Content)
	require.NotNil(t, detail.Category)
	assert.Equal(t, "Q&A", detail.Category.Name)

	assert.Contains(t, detail.ContentHTML, "<blockquote>")
	assert.Contains(t, detail.ContentHTML, "if a &lt; b &amp;&amp; c &gt; d {}")
	assert.NotContains(t, detail.ContentHTML, "&amp;lt;")
	assert.NotContains(t, detail.ContentHTML, "<script")

	c, err := f.comments.Create(identityOf(f.bob), CommentInput{PostID: created.PostID, Content: "x > y & z"})
	require.NoError(t, err)
	got, err := f.comments.FindOne(c.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "x > y & z", got.Content)
}
