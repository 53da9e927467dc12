package service

import (
	"testing"

	"linkboard/internal/models"
	"linkboard/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Create(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	owner, bob, banned := h.user("owner"), h.user("bob"), h.user("banned")
	public := h.community(owner, "c1", models.CommunityTypePublic)
	private := h.community(owner, "c2", models.CommunityTypePrivate)
	h.grant(public, banned, models.RoleBanned)

	post := h.post(owner, public, "post")
	other := h.post(owner, public, "other")
	secret := h.post(owner, private, "secret")

	c, err := h.Comment.CreateComment(h.ctx, bob, CreateCommentInput{PostID: post.ID, Body: " <i>nice</i> "})
	require.NoError(t, err)
	assert.Equal(t, "nice", c.Body)
	assert.Nil(t, c.ParentCommentID)

	reply, err := h.Comment.CreateComment(h.ctx, owner, CreateCommentInput{PostID: post.ID, Body: "thanks", ParentCommentID: &c.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, c.ID, *reply.ParentCommentID)

	_, err = h.Comment.CreateComment(h.ctx, bob, CreateCommentInput{PostID: other.ID, Body: "x", ParentCommentID: &c.ID})
	assertCode(t, err, models.CodeInvalidArgument)
	missing := uint(999)
	_, err = h.Comment.CreateComment(h.ctx, bob, CreateCommentInput{PostID: post.ID, Body: "x", ParentCommentID: &missing})
	assertCode(t, err, models.CodeInvalidArgument)

	_, err = h.Comment.CreateComment(h.ctx, bob, CreateCommentInput{PostID: post.ID, Body: "<br>"})
	assertCode(t, err, models.CodeInvalidArgument)
	_, err = h.Comment.CreateComment(h.ctx, nil, CreateCommentInput{PostID: post.ID, Body: "x"})
	assertCode(t, err, models.CodeUnauthenticated)
	_, err = h.Comment.CreateComment(h.ctx, banned, CreateCommentInput{PostID: post.ID, Body: "x"})
	assertCode(t, err, models.CodeForbidden)
	_, err = h.Comment.CreateComment(h.ctx, bob, CreateCommentInput{PostID: secret.ID, Body: "x"})
	assertCode(t, err, models.CodeForbidden)
	_, err = h.Comment.CreateComment(h.ctx, bob, CreateCommentInput{PostID: 999, Body: "x"})
	assertCode(t, err, models.CodeNotFound)

	// a deleted parent cannot be replied to
	require.NoError(t, h.Comment.DeleteComment(h.ctx, bob, c.ID))
	_, err = h.Comment.CreateComment(h.ctx, owner, CreateCommentInput{PostID: post.ID, Body: "late", ParentCommentID: &c.ID})
	assertCode(t, err, models.CodeInvalidArgument)
}

func TestCommentService_List(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	owner, bob := h.user("owner"), h.user("bob")
	c := h.community(owner, "c1", models.CommunityTypePrivate)
	h.grant(c, bob, models.RoleMember)
	post := h.post(owner, c, "post")

	root := h.comment(bob, post, nil)
	r1 := h.comment(owner, post, root)
	r2 := h.comment(bob, post, root)
	h.comment(owner, post, nil)

	req, err := ParsePageRequest("2", "", "", "", DefaultCommentLimit, pagination.OrderAsc)
	require.NoError(t, err)

	page, err := h.Comment.ListComments(h.ctx, bob, ListCommentsInput{PostID: post.ID, Page: req})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, root.ID, page.Items[0].ID)
	assert.Equal(t, r1.ID, page.Items[1].ID)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)

	req, err = ParsePageRequest("2", *page.NextCursor, "", "", DefaultCommentLimit, pagination.OrderAsc)
	require.NoError(t, err)
	page, err = h.Comment.ListComments(h.ctx, bob, ListCommentsInput{PostID: post.ID, Page: req})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, r2.ID, page.Items[0].ID)
	assert.False(t, page.HasMore)

	all := pagination.Request{Limit: 50, Sort: pagination.SortNew, Order: pagination.OrderAsc}
	replies, err := h.Comment.ListComments(h.ctx, bob, ListCommentsInput{PostID: post.ID, ParentID: &root.ID, Page: all})
	require.NoError(t, err)
	require.Len(t, replies.Items, 2)
	assert.Equal(t, r1.ID, replies.Items[0].ID)
	assert.Equal(t, r2.ID, replies.Items[1].ID)

	_, err = h.Comment.ListComments(h.ctx, nil, ListCommentsInput{PostID: post.ID, Page: all})
	assertCode(t, err, models.CodeForbidden)
	_, err = h.Comment.ListComments(h.ctx, h.user("stranger"), ListCommentsInput{PostID: post.ID, Page: all})
	assertCode(t, err, models.CodeForbidden)

	// soft-deleting the post hides its comments
	require.NoError(t, h.Post.DeletePost(h.ctx, owner, post.ID))
	_, err = h.Comment.ListComments(h.ctx, bob, ListCommentsInput{PostID: post.ID, Page: all})
	assertCode(t, err, models.CodeNotFound)
}

func TestCommentService_UpdateDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	owner, author, mod, other := h.user("owner"), h.user("author"), h.user("moder"), h.user("other")
	c := h.community(owner, "c1", models.CommunityTypePublic)
	h.grant(c, mod, models.RoleMod)
	post := h.post(owner, c, "post")
	comment := h.comment(author, post, nil)

	same, err := h.Comment.UpdateComment(h.ctx, author, UpdateCommentInput{CommentID: comment.ID, Body: strPtr("a comment")})
	require.NoError(t, err)
	assert.Nil(t, same.EditedAt)

	unchanged, err := h.Comment.UpdateComment(h.ctx, author, UpdateCommentInput{CommentID: comment.ID})
	require.NoError(t, err)
	assert.Nil(t, unchanged.EditedAt)

	_, err = h.Comment.UpdateComment(h.ctx, other, UpdateCommentInput{CommentID: comment.ID, Body: strPtr("mine now")})
	assertCode(t, err, models.CodeForbidden)

	edited, err := h.Comment.UpdateComment(h.ctx, author, UpdateCommentInput{CommentID: comment.ID, Body: strPtr("better")})
	require.NoError(t, err)
	assert.Equal(t, "better", edited.Body)
	assert.NotNil(t, edited.EditedAt)

	moderated, err := h.Comment.UpdateComment(h.ctx, mod, UpdateCommentInput{CommentID: comment.ID, Body: strPtr("[removed]")})
	require.NoError(t, err)
	assert.Equal(t, "[removed]", moderated.Body)

	assertCode(t, h.Comment.DeleteComment(h.ctx, other, comment.ID), models.CodeForbidden)
	require.NoError(t, h.Comment.DeleteComment(h.ctx, mod, comment.ID))
	assertCode(t, h.Comment.DeleteComment(h.ctx, author, comment.ID), models.CodeNotFound)
}
