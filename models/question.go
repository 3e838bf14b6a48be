package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Question types produced by the extraction gateway.
const (
	TypeFlashcard = "flashcard"
	TypeQuiz      = "quiz"
	TypeEssay     = "essay"
)

// DefaultTopic labels questions saved without a topic.
const DefaultTopic = "General"

// OptionList holds the four quiz choices, stored as a JSON text column.
// It is nil for flashcard and essay questions.
type OptionList []string

func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OptionList) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	}
	return errors.New("unsupported source type for OptionList")
}

// Question is a single generated study item. Type is fixed at creation
// and questions are never updated in place: they are created in batches
// by the extraction gateway and removed by topic delete or full wipe.
type Question struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Topic     string     `gorm:"not null;size:200;default:'General';index" json:"topic"`
	Type      string     `gorm:"not null;size:20" json:"type"`
	Question  string     `gorm:"not null" json:"question"`
	Answer    string     `gorm:"not null" json:"answer"`
	Options   OptionList `gorm:"type:text" json:"options,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
