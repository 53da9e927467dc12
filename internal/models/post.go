package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a link or text submission inside a community.
type Post struct {
	ID           uint    `gorm:"primaryKey;index:idx_posts_created_id,priority:2" json:"id"`
	CommunityID  uint    `gorm:"not null;index" json:"community_id"`
	AuthorUserID uint    `gorm:"not null;index" json:"author_id"`
	Title        string  `gorm:"type:varchar(300);not null" json:"title"`
	Body         *string `gorm:"type:text" json:"body,omitempty"`
	ImageURL     *string `gorm:"type:varchar(2048)" json:"image_url,omitempty"`
	// Score is not persisted; computed at query time
	Score int64 `gorm:"->;-:migration" json:"score"`
	// MyVote is the requesting user's vote, 0 when absent (computed)
	MyVote    int            `gorm:"->;-:migration" json:"my_vote"`
	CreatedAt time.Time      `gorm:"not null;index:idx_posts_created_id,priority:1" json:"created_at"`
	EditedAt  *time.Time     `json:"edited_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment belongs to a post. ParentCommentID is a back-reference only;
// children are found by querying on it.
type Comment struct {
	ID              uint           `gorm:"primaryKey;index:idx_comments_post_id,priority:2" json:"id"`
	PostID          uint           `gorm:"not null;index:idx_comments_post_id,priority:1" json:"post_id"`
	AuthorUserID    uint           `gorm:"not null;index" json:"author_id"`
	ParentCommentID *uint          `gorm:"index" json:"parent_comment_id"`
	Body            string         `gorm:"type:text;not null" json:"body"`
	Score           int64          `gorm:"->;-:migration" json:"score"`
	MyVote          int            `gorm:"->;-:migration" json:"my_vote"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	EditedAt        *time.Time     `json:"edited_at,omitempty"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
