package models

import "time"

// Vote values. There is no neutral row; absence means no vote.
const (
	VoteUp   = 1
	VoteDown = -1
)

// ValidVoteValue reports whether v may be stored in a vote row.
func ValidVoteValue(v int) bool {
	return v == VoteUp || v == VoteDown
}

// PostVote is one user's vote on one post.
type PostVote struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Value     int       `gorm:"type:smallint;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentVote is one user's vote on one comment.
type CommentVote struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Value     int       `gorm:"type:smallint;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubjectKind names the votable entity.
type SubjectKind string

const (
	SubjectPost    SubjectKind = "post"
	SubjectComment SubjectKind = "comment"
)

// VoteState is the result of casting or clearing a vote.
type VoteState struct {
	Subject   SubjectKind `json:"subject"`
	SubjectID uint        `json:"subject_id"`
	UserID    uint        `json:"user_id"`
	Value     int         `json:"value"`
	Score     int64       `json:"score"`
}
