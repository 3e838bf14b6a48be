package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/spirow73/study-ai-pro/models"
	"github.com/spirow73/study-ai-pro/review"
	"github.com/spirow73/study-ai-pro/utils"
)

// GetStats returns the derived aggregates for the calling user plus the
// ten most recent answers, newest first. Nothing here is stored; it is
// all recomputed from the progress log.
func (db *DBHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var progress []models.ProgressEntry
	if err := db.Where("username = ?", username).Order("id").Find(&progress).Error; err != nil {
		log.Printf("GetStats: Failed to fetch progress for %s: %v", username, err)
		http.Error(w, "Failed to fetch progress", http.StatusInternalServerError)
		return
	}

	total, correct, accuracy := review.Summary(progress)

	type RecentEntry struct {
		QuestionID uint      `json:"question_id"`
		IsCorrect  bool      `json:"is_correct"`
		CreatedAt  time.Time `json:"created_at"`
	}
	recent := make([]RecentEntry, 0, 10)
	for i := len(progress) - 1; i >= 0 && len(recent) < 10; i-- {
		recent = append(recent, RecentEntry{
			QuestionID: progress[i].QuestionID,
			IsCorrect:  progress[i].IsCorrect,
			CreatedAt:  progress[i].CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total":    total,
		"correct":  correct,
		"accuracy": accuracy,
		"recent":   recent,
	})
}

// ClearHistory deletes the calling user's whole progress log.
func (db *DBHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := db.Where("username = ?", username).Delete(&models.ProgressEntry{}).Error; err != nil {
		log.Printf("ClearHistory: Failed to clear history for %s: %v", username, err)
		http.Error(w, "Failed to clear history", http.StatusInternalServerError)
		return
	}

	log.Printf("ClearHistory: Cleared progress log for %s", username)
	w.WriteHeader(http.StatusNoContent)
}
