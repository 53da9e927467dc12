// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"linkboard/internal/models"
	"linkboard/internal/pagination"
	"linkboard/internal/policy"

	"gorm.io/gorm"
)

// MaxBatchSize bounds id lists accepted by batch reads.
const MaxBatchSize = 100

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError and wraps
// anything else.
func notFoundOr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return fmt.Errorf("get %s: %w", resource, err)
}

// votable describes where a subject's votes live.
type votable struct {
	kind       models.SubjectKind
	table      string
	voteTable  string
	voteColumn string
}

var (
	postSubject    = votable{kind: models.SubjectPost, table: "posts", voteTable: "post_votes", voteColumn: "post_id"}
	commentSubject = votable{kind: models.SubjectComment, table: "comments", voteTable: "comment_votes", voteColumn: "comment_id"}
)

func subjectFor(kind models.SubjectKind) (votable, error) {
	switch kind {
	case models.SubjectPost:
		return postSubject, nil
	case models.SubjectComment:
		return commentSubject, nil
	}
	return votable{}, fmt.Errorf("unknown vote subject %q", kind)
}

// scoreExpr is the aggregated score of a row, 0 when nobody voted.
func (v votable) scoreExpr() string {
	return "COALESCE(ps.score, 0)"
}

// withScores selects the subject's columns plus its score and the viewer's
// vote using one aggregate join and one keyed join. viewerID 0 never matches
// a vote row.
func (v votable) withScores(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.
		Select(fmt.Sprintf("%s.*, %s AS score, COALESCE(mv.value, 0) AS my_vote", v.table, v.scoreExpr())).
		Joins(fmt.Sprintf(
			"LEFT JOIN (SELECT %[1]s, SUM(value) AS score FROM %[2]s GROUP BY %[1]s) AS ps ON ps.%[1]s = %[3]s.id",
			v.voteColumn, v.voteTable, v.table)).
		Joins(fmt.Sprintf(
			"LEFT JOIN %[2]s AS mv ON mv.%[1]s = %[3]s.id AND mv.user_id = ?",
			v.voteColumn, v.voteTable, v.table), viewerID)
}

// keyset applies the ordering for req and, when a cursor is present, the
// predicate selecting rows strictly after it.
func (v votable) keyset(db *gorm.DB, req pagination.Request) *gorm.DB {
	created := v.table + ".created_at"
	id := v.table + ".id"

	if req.Sort.Effective() == pagination.SortTop {
		score := v.scoreExpr()
		if c := req.After; c != nil {
			cmp := "<"
			if req.Order == pagination.OrderAsc {
				cmp = ">"
			}
			at := c.Time()
			db = db.Where(
				fmt.Sprintf("(%[1]s %[2]s ? OR (%[1]s = ? AND (%[3]s < ? OR (%[3]s = ? AND %[4]s < ?))))", score, cmp, created, id),
				c.Score, c.Score, at, at, c.ID,
			)
		}
		return db.
			Order(score + " " + req.Order.SQL()).
			Order(created + " DESC").
			Order(id + " DESC")
	}

	if c := req.After; c != nil {
		cmp := "<"
		if req.Order == pagination.OrderAsc {
			cmp = ">"
		}
		at := c.Time()
		db = db.Where(
			fmt.Sprintf("(%[1]s %[3]s ? OR (%[1]s = ? AND %[2]s %[3]s ?))", created, id, cmp),
			at, at, c.ID,
		)
	}
	return db.
		Order(created + " " + req.Order.SQL()).
		Order(id + " " + req.Order.SQL())
}

// visibleTo restricts rows to communities the viewer may read. It joins
// communities (live only) and the viewer's role row on communityColumn and
// mirrors policy.CanView using the same role and type sets.
func visibleTo(db *gorm.DB, communityColumn string, viewerID uint) *gorm.DB {
	return db.
		Joins("JOIN communities ON communities.id = "+communityColumn+" AND communities.deleted_at IS NULL").
		Joins("LEFT JOIN community_roles AS cr ON cr.community_id = communities.id AND cr.user_id = ?", viewerID).
		Where("(cr.role IS NULL OR cr.role NOT IN ?)", policy.DeniedRoles).
		Where("(communities.type IN ? OR cr.role IN ?)", policy.OpenTypes, policy.ReadRoles)
}

// pageSize is the number of rows to fetch for req: one extra to detect
// whether another page exists.
func pageSize(req pagination.Request) int {
	return req.Limit + 1
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// likeEscaper makes a search term match literally. '!' is the escape
// character because a backslash literal parses differently on mysql.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
