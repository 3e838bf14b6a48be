package review

import "github.com/spirow73/study-ai-pro/models"

// Self-report sentinels recorded as the user_answer for flashcards,
// which are never machine-graded.
const (
	SelfReportKnown  = "self-report: knew it"
	SelfReportMissed = "self-report: didn't know it"
)

// QuizCorrect reports whether the chosen quiz option matches the stored
// answer. The comparison is literal: case and whitespace count.
func QuizCorrect(selected, answer string) bool {
	return selected == answer
}

// Summary aggregates a user's progress log. Nothing is stored: total,
// correct and accuracy are recomputed from the append-only log every
// time. An empty log has accuracy 0, not NaN.
func Summary(progress []models.ProgressEntry) (total, correct int, accuracy float64) {
	total = len(progress)
	for _, p := range progress {
		if p.IsCorrect {
			correct++
		}
	}
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
	}
	return total, correct, accuracy
}
