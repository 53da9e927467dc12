package repository

import (
	"sort"
	"testing"
	"time"

	"linkboard/internal/models"
	"linkboard/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postKey(p *models.Post) (int64, time.Time, uint) { return p.Score, p.CreatedAt, p.ID }

// walk pages through a listing and returns every id in order.
func walk(t *testing.T, repo PostRepository, f *fixture, viewer uint, filter PostFilter, s pagination.Sort, o pagination.Order, limit int) []uint {
	t.Helper()
	req := pagination.Request{Limit: limit, Sort: s, Order: o}
	var ids []uint
	for range 50 {
		rows, err := repo.List(f.ctx, viewer, filter, req)
		require.NoError(t, err)
		page := pagination.Build(rows, req, postKey)
		ids = append(ids, postIDs(page.Items)...)
		if !page.HasMore {
			return ids
		}
		req.After, err = pagination.DecodeCursor(*page.NextCursor, s, o)
		require.NoError(t, err)
	}
	t.Fatal("pagination did not terminate")
	return nil
}

type rankedPost struct {
	id    uint
	score int64
	at    time.Time
}

// seedRanked creates posts with score ties and a created_at tie.
func seedRanked(t *testing.T, f *fixture) (*models.Community, []rankedPost) {
	t.Helper()
	owner := f.user("owner")
	voters := []*models.User{f.user("v1"), f.user("v2"), f.user("v3")}
	c := f.community("ranked", models.CommunityTypePublic, owner)

	scores := []int{2, 0, -1, 2, 3, 0, 1, 2}
	shared := f.base.Add(time.Hour)
	var out []rankedPost
	for i, s := range scores {
		var p *models.Post
		if i == 5 || i == 6 {
			p = f.post(c, owner, "tie", shared)
		} else {
			p = f.post(c, owner, "post")
		}
		value := models.VoteUp
		if s < 0 {
			value = models.VoteDown
		}
		n := s
		if n < 0 {
			n = -n
		}
		for v := 0; v < n; v++ {
			f.vote(models.SubjectPost, p.ID, voters[v], value)
		}
		out = append(out, rankedPost{id: p.ID, score: int64(s), at: p.CreatedAt})
	}
	return c, out
}

func expectedOrder(posts []rankedPost, s pagination.Sort, o pagination.Order) []uint {
	sorted := append([]rankedPost(nil), posts...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if s == pagination.SortTop && a.score != b.score {
			if o == pagination.OrderAsc {
				return a.score < b.score
			}
			return a.score > b.score
		}
		if s == pagination.SortTop || o == pagination.OrderDesc {
			if !a.at.Equal(b.at) {
				return a.at.After(b.at)
			}
			return a.id > b.id
		}
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.id < b.id
	})
	ids := make([]uint, len(sorted))
	for i, p := range sorted {
		ids[i] = p.id
	}
	return ids
}

func TestPostRepository_PaginationCompleteness(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	_, posts := seedRanked(t, f)

	for _, s := range []pagination.Sort{pagination.SortNew, pagination.SortTop, pagination.SortHot} {
		for _, o := range []pagination.Order{pagination.OrderAsc, pagination.OrderDesc} {
			for _, limit := range []int{1, 3, 100} {
				got := walk(t, repo, f, 0, PostFilter{}, s, o, limit)
				assert.Equal(t, expectedOrder(posts, s.Effective(), o), got, "sort=%s order=%s limit=%d", s, o, limit)
			}
		}
	}
}

func TestPostRepository_KeysetStability(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	c, posts := seedRanked(t, f)

	req := pagination.Request{Limit: 3, Sort: pagination.SortNew, Order: pagination.OrderDesc}
	rows, err := repo.List(f.ctx, 0, PostFilter{}, req)
	require.NoError(t, err)
	first := pagination.Build(rows, req, postKey)
	require.True(t, first.HasMore)

	// A newer post arriving between page fetches must not shift page two.
	f.post(c, f.user("late"), "late", f.base.Add(24*time.Hour))

	req.After, err = pagination.DecodeCursor(*first.NextCursor, req.Sort, req.Order)
	require.NoError(t, err)
	rows, err = repo.List(f.ctx, 0, PostFilter{}, req)
	require.NoError(t, err)
	second := pagination.Build(rows, req, postKey)

	want := expectedOrder(posts, pagination.SortNew, pagination.OrderDesc)
	assert.Equal(t, want[:3], postIDs(first.Items))
	assert.Equal(t, want[3:6], postIDs(second.Items))
}

func TestPostRepository_ScoreAndMyVote(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	a, b := f.user("alice"), f.user("bob")
	c := f.community("c1", models.CommunityTypePublic, a)
	p := f.post(c, a, "hello")

	f.vote(models.SubjectPost, p.ID, a, models.VoteUp)
	f.vote(models.SubjectPost, p.ID, b, models.VoteDown)
	f.vote(models.SubjectPost, p.ID, b, models.VoteDown)

	got, err := repo.GetByID(f.ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Score)
	assert.Equal(t, -1, got.MyVote)

	anon, err := repo.GetByID(f.ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, anon.MyVote)
}

func TestPostRepository_Visibility(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	owner, member, stranger, banned := f.user("owner"), f.user("member"), f.user("stranger"), f.user("banned")

	pub := f.community("pub", models.CommunityTypePublic, owner)
	restricted := f.community("restricted", models.CommunityTypeRestricted, owner)
	private := f.community("private", models.CommunityTypePrivate, owner)
	f.role(private, member, models.RoleMember)
	f.role(pub, banned, models.RoleBanned)

	pPub := f.post(pub, owner, "public")
	pRes := f.post(restricted, owner, "restricted")
	pPriv := f.post(private, owner, "private")

	list := func(viewer uint) []uint {
		rows, err := repo.List(f.ctx, viewer, PostFilter{}, pagination.Request{Limit: 10, Sort: pagination.SortNew, Order: pagination.OrderAsc})
		require.NoError(t, err)
		return postIDs(rows)
	}

	assert.Equal(t, []uint{pPub.ID}, list(0))
	assert.Equal(t, []uint{pPub.ID}, list(stranger.ID))
	assert.Equal(t, []uint{pPub.ID, pPriv.ID}, list(member.ID))
	assert.Equal(t, []uint{pPub.ID, pRes.ID, pPriv.ID}, list(owner.ID))
	assert.Empty(t, list(banned.ID))
}

func TestPostRepository_Filters(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	a, b := f.user("alice"), f.user("bob")
	c1 := f.community("c1", models.CommunityTypePublic, a)
	c2 := f.community("c2", models.CommunityTypePublic, a)

	p1 := f.post(c1, a, "Go Generics Explained")
	p2 := f.post(c1, b, "Rust lifetimes")
	p3 := f.post(c2, b, "Why GO?")
	body := "deep dive into go scheduling"
	p4 := &models.Post{CommunityID: c2.ID, AuthorUserID: a.ID, Title: "Runtime notes", Body: &body, CreatedAt: f.base.Add(time.Hour)}
	require.NoError(t, repo.Create(f.ctx, p4))

	req := pagination.Request{Limit: 10, Sort: pagination.SortNew, Order: pagination.OrderAsc}
	list := func(filter PostFilter) []uint {
		rows, err := repo.List(f.ctx, 0, filter, req)
		require.NoError(t, err)
		return postIDs(rows)
	}

	assert.Equal(t, []uint{p1.ID, p2.ID}, list(PostFilter{CommunityID: c1.ID}))
	assert.Equal(t, []uint{p2.ID, p3.ID}, list(PostFilter{AuthorID: b.ID}))
	assert.Equal(t, []uint{p3.ID}, list(PostFilter{CommunityID: c2.ID, AuthorID: b.ID}))
	assert.Equal(t, []uint{p1.ID, p3.ID, p4.ID}, list(PostFilter{Query: "go"}))
	assert.Equal(t, []uint{p4.ID}, list(PostFilter{Query: "go", AuthorID: a.ID, CommunityID: c2.ID}))
	assert.Empty(t, list(PostFilter{Query: "haskell"}))
}

func TestPostRepository_QueryMatchesLiterally(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	a := f.user("alice")
	c := f.community("c1", models.CommunityTypePublic, a)

	thousand := f.post(c, a, "1000 things")
	underscore := f.post(c, a, "a_b")
	plain := f.post(c, a, "axb")
	percent := f.post(c, a, "100% sure")
	bang := f.post(c, a, "wow!")

	req := pagination.Request{Limit: 10, Sort: pagination.SortNew, Order: pagination.OrderAsc}
	search := func(q string) []uint {
		rows, err := repo.List(f.ctx, 0, PostFilter{Query: q}, req)
		require.NoError(t, err)
		return postIDs(rows)
	}

	assert.Equal(t, []uint{percent.ID}, search("100%"))
	assert.Equal(t, []uint{underscore.ID}, search("a_b"))
	assert.Equal(t, []uint{percent.ID}, search("%"))
	assert.Equal(t, []uint{bang.ID}, search("!"))
	assert.Equal(t, []uint{thousand.ID, percent.ID}, search("100"))
	assert.Equal(t, []uint{plain.ID}, search("AXB"))
}

func TestPostRepository_GetBatch(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	owner, viewer := f.user("owner"), f.user("viewer")
	pub := f.community("pub", models.CommunityTypePublic, owner)
	private := f.community("private", models.CommunityTypePrivate, owner)

	p1 := f.post(pub, owner, "one")
	p2 := f.post(pub, owner, "two")
	hidden := f.post(private, owner, "hidden")
	gone := f.post(pub, owner, "gone")
	require.NoError(t, repo.SoftDelete(f.ctx, gone.ID))

	got, err := repo.GetBatch(f.ctx, viewer.ID, []uint{p2.ID, 9999, hidden.ID, p1.ID, gone.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{p2.ID, p1.ID, p2.ID}, postIDs(got), "repeated ids are returned once per occurrence")

	got, err = repo.GetBatch(f.ctx, viewer.ID, []uint{p1.ID, p2.ID, p1.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID, p2.ID, p1.ID}, postIDs(got))

	empty, err := repo.GetBatch(f.ctx, viewer.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_SoftDelete(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	a, b := f.user("alice"), f.user("bob")
	c := f.community("c1", models.CommunityTypePublic, a)
	p := f.post(c, b, "hello")
	keep := f.post(c, b, "keep")
	f.vote(models.SubjectPost, p.ID, b, models.VoteUp)

	require.NoError(t, repo.SoftDelete(f.ctx, p.ID))

	_, err := repo.GetByID(f.ctx, p.ID, 0)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = repo.SoftDelete(f.ctx, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = repo.Update(f.ctx, p.ID, map[string]any{"title": "again"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	rows, err := repo.List(f.ctx, 0, PostFilter{}, pagination.Request{Limit: 10, Sort: pagination.SortTop, Order: pagination.OrderDesc})
	require.NoError(t, err)
	assert.Equal(t, []uint{keep.ID}, postIDs(rows))

	// the vote row is retained
	var n int64
	require.NoError(t, f.db.Model(&models.PostVote{}).Where("post_id = ?", p.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPostRepository_DeletedCommunityHidesPosts(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	a := f.user("alice")
	c := f.community("c1", models.CommunityTypePublic, a)
	p := f.post(c, a, "hello")

	require.NoError(t, f.db.Delete(&models.Community{}, c.ID).Error)

	_, err := repo.GetByID(f.ctx, p.ID, a.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	rows, err := repo.List(f.ctx, a.ID, PostFilter{}, pagination.Request{Limit: 10, Sort: pagination.SortNew, Order: pagination.OrderDesc})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPostRepository_Update(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	a := f.user("alice")
	c := f.community("c1", models.CommunityTypePublic, a)
	p := f.post(c, a, "hello")

	edited := time.Now().UTC()
	require.NoError(t, repo.Update(f.ctx, p.ID, map[string]any{"title": "hello world", "edited_at": edited}))

	got, err := repo.GetByID(f.ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Title)
	require.NotNil(t, got.EditedAt)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	err = repo.Update(f.ctx, 4242, map[string]any{"title": "x"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
