package repository

import (
	"context"
	"fmt"

	"linkboard/internal/database"
	"linkboard/internal/models"
	"linkboard/internal/observability"

	"gorm.io/gorm"
)

// VoteRepository is the vote ledger: at most one row per (subject, user).
type VoteRepository interface {
	// Cast sets the user's vote to value, replacing any previous vote.
	Cast(ctx context.Context, kind models.SubjectKind, subjectID, userID uint, value int) error
	// Clear removes the user's vote. It reports whether a row existed.
	Clear(ctx context.Context, kind models.SubjectKind, subjectID, userID uint) (bool, error)
	// Score sums the subject's votes; no votes is 0.
	Score(ctx context.Context, kind models.SubjectKind, subjectID uint) (int64, error)
}

type voteRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db, logger: observability.NewRepoLogger("votes")}
}

func (r *voteRepository) Cast(ctx context.Context, kind models.SubjectKind, subjectID, userID uint, value int) error {
	if !models.ValidVoteValue(value) {
		return models.NewValidationError("value must be 1 or -1").
			WithDetails(map[string]any{"field": "value", "value": value})
	}
	subject, err := subjectFor(kind)
	if err != nil {
		return err
	}
	defer observability.TrackQuery("cast_vote", subject.voteTable)()

	err = r.upsert(ctx, subject, subjectID, userID, value)
	if database.IsTransientConflict(err) {
		// A concurrent first vote won the insert (or the deadlock, on InnoDB);
		// the retry takes the update path.
		observability.VoteUpsertRetries.WithLabelValues(string(kind)).Inc()
		err = r.upsert(ctx, subject, subjectID, userID, value)
	}
	if err != nil {
		r.logger.LogError(ctx, err, "cast_vote")
		return fmt.Errorf("cast %s vote: %w", kind, err)
	}

	observability.VotesTotal.WithLabelValues(string(kind), "cast").Inc()
	r.logger.LogUpdate(ctx, map[string]interface{}{
		"subject": string(kind), "subject_id": subjectID, "user_id": userID, "value": value,
	})
	return nil
}

func (r *voteRepository) upsert(ctx context.Context, s votable, subjectID, userID uint, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := utcNow()
		res := tx.Exec(
			fmt.Sprintf("UPDATE %s SET value = ?, updated_at = ? WHERE %s = ? AND user_id = ?", s.voteTable, s.voteColumn),
			value, now, subjectID, userID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Exec(
			fmt.Sprintf("INSERT INTO %s (%s, user_id, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", s.voteTable, s.voteColumn),
			subjectID, userID, value, now, now,
		).Error
	})
}

func (r *voteRepository) Clear(ctx context.Context, kind models.SubjectKind, subjectID, userID uint) (bool, error) {
	subject, err := subjectFor(kind)
	if err != nil {
		return false, err
	}
	defer observability.TrackQuery("clear_vote", subject.voteTable)()

	res := r.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND user_id = ?", subject.voteTable, subject.voteColumn),
		subjectID, userID,
	)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "clear_vote")
		return false, fmt.Errorf("clear %s vote: %w", kind, res.Error)
	}

	removed := res.RowsAffected > 0
	if removed {
		observability.VotesTotal.WithLabelValues(string(kind), "clear").Inc()
		r.logger.LogDelete(ctx, map[string]interface{}{
			"subject": string(kind), "subject_id": subjectID, "user_id": userID,
		})
	}
	return removed, nil
}

func (r *voteRepository) Score(ctx context.Context, kind models.SubjectKind, subjectID uint) (int64, error) {
	subject, err := subjectFor(kind)
	if err != nil {
		return 0, err
	}
	defer observability.TrackQuery("score", subject.voteTable)()

	var score int64
	err = r.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT COALESCE(SUM(value), 0) FROM %s WHERE %s = ?", subject.voteTable, subject.voteColumn), subjectID).
		Scan(&score).Error
	if err != nil {
		return 0, fmt.Errorf("score %s: %w", kind, err)
	}
	return score, nil
}
