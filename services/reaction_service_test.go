package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/board/models"
)

func countReactions(t *testing.T, f *fixture, userID uint, target ReactionTarget) []models.Reaction {
	t.Helper()
	var rows []models.Reaction
	require.NoError(t, f.db.Where("user_id = ? AND "+target.column()+" = ?", userID, target.ID).Find(&rows).Error)
	return rows
}

func TestReactionToggleSameKindRemoves(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	postID := f.post(t, f.alice, cat, "p")
	c, err := f.comments.Create(identityOf(f.alice), CommentInput{PostID: postID, Content: "X"})
	require.NoError(t, err)
	target := ReactionTarget{Kind: TargetComment, ID: c.ID}

	res, err := f.reactions.Toggle(f.bob.ID, target, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.NotZero(t, res.ID)

	res, err = f.reactions.Toggle(f.bob.ID, target, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ActionRemoved, res.Action)

	assert.Empty(t, countReactions(t, f, f.bob.ID, target))
}

func TestReactionToggleOtherKindSwitches(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	postID := f.post(t, f.alice, cat, "p")
	target := ReactionTarget{Kind: TargetPost, ID: postID}

	_, err := f.reactions.Toggle(f.bob.ID, target, models.ReactionLike)
	require.NoError(t, err)
	res, err := f.reactions.Toggle(f.bob.ID, target, models.ReactionDisLike)
	require.NoError(t, err)
	assert.Equal(t, ActionSwitched, res.Action)
	assert.Equal(t, models.ReactionDisLike, res.ReactionType)

	rows := countReactions(t, f, f.bob.ID, target)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReactionDisLike, rows[0].ReactionType)

	counts, err := f.reactions.Counts(target)
	require.NoError(t, err)
	assert.Equal(t, ReactionCounts{Like: 0, DisLike: 1}, counts)
}

func TestReactionValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.reactions.Toggle(f.bob.ID, ReactionTarget{Kind: TargetPost, ID: 999}, models.ReactionLike)
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.reactions.Toggle(f.bob.ID, ReactionTarget{Kind: TargetComment, ID: 999}, models.ReactionLike)
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.reactions.Toggle(f.bob.ID, ReactionTarget{Kind: TargetPost, ID: 1}, models.ReactionType("love"))
	requireAppError(t, err, http.StatusBadRequest)
}

func TestReactionCountsForMany(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "General", nil)
	p1 := f.post(t, f.alice, cat, "one")
	p2 := f.post(t, f.alice, cat, "two")

	for _, u := range []models.User{f.alice, f.bob} {
		_, err := f.reactions.Toggle(u.ID, ReactionTarget{Kind: TargetPost, ID: p1}, models.ReactionLike)
		require.NoError(t, err)
	}
	_, err := f.reactions.Toggle(f.bob.ID, ReactionTarget{Kind: TargetPost, ID: p2}, models.ReactionDisLike)
	require.NoError(t, err)

	counts, err := f.reactions.CountsFor(TargetPost, []uint{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, ReactionCounts{Like: 2}, counts[p1])
	assert.Equal(t, ReactionCounts{DisLike: 1}, counts[p2])
}
