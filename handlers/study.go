package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/spirow73/study-ai-pro/models"
	"github.com/spirow73/study-ai-pro/review"
	"github.com/spirow73/study-ai-pro/utils"
)

// StudyView is one snapshot of a study session: the filtered list size,
// the clamped cursor and the question under it.
type StudyView struct {
	Total    int              `json:"total"`
	Index    int              `json:"index"`
	Question *models.Question `json:"question"`
	Message  string           `json:"message,omitempty"`
}

// GetStudySession runs the review selector over the current filters and
// returns the question at the (clamped, possibly moved) cursor.
//
// Query parameters: topic, type, failed, q (the externalized cursor),
// and nav=next|prev|jump with to=<1-based position> for jumps. The
// response echoes the new cursor so the client can keep it in the URL.
func (db *DBHandler) GetStudySession(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	topic := query.Get("topic")
	if topic == "" {
		topic = review.AllTopics
	}
	qtype := query.Get("type")
	onlyFailed := query.Get("failed") == "true" || query.Get("failed") == "1"

	var questions []models.Question
	if err := db.Order("id").Find(&questions).Error; err != nil {
		log.Printf("GetStudySession: Failed to fetch questions: %v", err)
		http.Error(w, "Failed to fetch questions", http.StatusInternalServerError)
		return
	}

	var progress []models.ProgressEntry
	if onlyFailed {
		if err := db.Where("username = ?", username).Find(&progress).Error; err != nil {
			log.Printf("GetStudySession: Failed to fetch progress for %s: %v", username, err)
			http.Error(w, "Failed to fetch progress", http.StatusInternalServerError)
			return
		}
	}

	selected := review.Select(questions, topic, qtype, onlyFailed, progress)

	w.Header().Set("Content-Type", "application/json")

	if len(selected) == 0 {
		view := StudyView{Message: "No questions match these filters."}
		if onlyFailed {
			view.Message = "No failed questions pending. Nice work!"
		}
		json.NewEncoder(w).Encode(view)
		return
	}

	cursor := review.ParseCursor(query.Get("q")).Clamp(len(selected))
	switch query.Get("nav") {
	case "next":
		cursor = cursor.Next(len(selected))
	case "prev":
		cursor = cursor.Prev()
	case "jump":
		to, err := strconv.Atoi(query.Get("to"))
		if err != nil {
			http.Error(w, "Invalid jump target", http.StatusBadRequest)
			return
		}
		cursor = cursor.JumpTo(to, len(selected))
	}

	question := selected[int(cursor)]
	json.NewEncoder(w).Encode(StudyView{
		Total:    len(selected),
		Index:    int(cursor),
		Question: &question,
	})
}

// AnswerResult is what the user sees after submitting an answer.
type AnswerResult struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// SubmitAnswer records exactly one progress entry for the answered
// question. Correctness depends on the question type: flashcards are
// self-reported, quiz answers compare literally against the stored
// option, essays are graded by the external gateway.
func (db *DBHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		QuestionID uint   `json:"question_id"`
		Knew       *bool  `json:"knew,omitempty"`
		Selected   string `json:"selected,omitempty"`
		Answer     string `json:"answer,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var question models.Question
	if err := db.First(&question, req.QuestionID).Error; err != nil {
		http.Error(w, "Question not found", http.StatusNotFound)
		return
	}

	var result AnswerResult
	var userAnswer string

	switch question.Type {
	case models.TypeFlashcard:
		if req.Knew == nil {
			http.Error(w, "Flashcard answers need a self-report", http.StatusBadRequest)
			return
		}
		result.Correct = *req.Knew
		userAnswer = review.SelfReportMissed
		if result.Correct {
			userAnswer = review.SelfReportKnown
		}

	case models.TypeQuiz:
		if req.Selected == "" {
			http.Error(w, "Select an option first", http.StatusBadRequest)
			return
		}
		result.Correct = review.QuizCorrect(req.Selected, question.Answer)
		userAnswer = req.Selected
		if !result.Correct {
			result.Answer = question.Answer
		}

	case models.TypeEssay:
		if strings.TrimSpace(req.Answer) == "" {
			http.Error(w, "Write something first", http.StatusBadRequest)
			return
		}
		if db.AI.Disabled() {
			http.Error(w, "Essay grading is disabled: no AI credentials configured", http.StatusServiceUnavailable)
			return
		}
		grade := db.AI.GradeEssay(r.Context(), question.Question, question.Answer, req.Answer)
		result.Correct = grade.Correct
		result.Feedback = grade.Feedback
		userAnswer = req.Answer
		if !result.Correct {
			result.Answer = question.Answer
		}

	default:
		http.Error(w, "Unknown question type", http.StatusInternalServerError)
		return
	}

	entry := models.ProgressEntry{
		Username:   username,
		QuestionID: question.ID,
		IsCorrect:  result.Correct,
		UserAnswer: userAnswer,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("SubmitAnswer: Failed to record progress for %s: %v", username, err)
		http.Error(w, "Failed to record progress", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
