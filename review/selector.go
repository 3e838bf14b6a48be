// Package review implements the study-session engine: selecting the
// ordered question set for a session, tracking the position inside it,
// and deriving mastery state from the answer log. It is pure — all I/O
// stays in the handlers.
package review

import "github.com/spirow73/study-ai-pro/models"

// AllTopics is the sentinel topic filter that keeps every topic.
const AllTopics = "All topics"

// Select returns the ordered study set for one session.
//
// Filters apply in order: topic (exact match unless AllTopics or empty),
// then question type (empty keeps all), then the failed-only rule. A
// question still "needs review" only while it has never been answered
// correctly: review = failed − succeeded over the user's whole log.
// When that difference is empty, the full failed set is used instead,
// so review mode re-shows something rather than nothing. The input
// order is preserved and the result may be empty.
func Select(questions []models.Question, topic, qtype string, onlyFailed bool, progress []models.ProgressEntry) []models.Question {
	selected := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if topic != "" && topic != AllTopics && q.Topic != topic {
			continue
		}
		if qtype != "" && q.Type != qtype {
			continue
		}
		selected = append(selected, q)
	}

	if !onlyFailed {
		return selected
	}

	failed := make(map[uint]struct{})
	succeeded := make(map[uint]struct{})
	for _, p := range progress {
		if p.IsCorrect {
			succeeded[p.QuestionID] = struct{}{}
		} else {
			failed[p.QuestionID] = struct{}{}
		}
	}

	review := make(map[uint]struct{})
	for id := range failed {
		if _, ok := succeeded[id]; !ok {
			review[id] = struct{}{}
		}
	}
	if len(review) == 0 {
		review = failed
	}

	kept := selected[:0]
	for _, q := range selected {
		if _, ok := review[q.ID]; ok {
			kept = append(kept, q)
		}
	}
	return kept
}
