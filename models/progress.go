package models

import "time"

// ProgressEntry is one appended answer record. The log is append-only:
// rows are never updated, and "needs review" is derived from the whole
// log at query time rather than stored as a mastery flag.
//
// QuestionID is a soft reference. The topic-delete path cascades over
// it, but no foreign key is enforced.
type ProgressEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"not null;size:100;index" json:"username"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	IsCorrect  bool      `gorm:"not null" json:"is_correct"`
	UserAnswer string    `json:"user_answer"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ProgressEntry) TableName() string {
	return "user_progress"
}
