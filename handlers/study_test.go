package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spirow73/study-ai-pro/middleware"
	"github.com/spirow73/study-ai-pro/models"
	"github.com/spirow73/study-ai-pro/review"
	"github.com/spirow73/study-ai-pro/services"
)

func newTestHandler(t *testing.T) *DBHandler {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Question{}, &models.ProgressEntry{}, &models.Document{}))

	return &DBHandler{
		DB:      db,
		AI:      services.NewAIService("", "", nil, ""),
		Storage: services.NewStorageService(t.TempDir()),
	}
}

func authedRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKey{}, "ana"))
}

func seedQuestion(t *testing.T, h *DBHandler, topic, qtype, answer string) models.Question {
	t.Helper()

	q := models.Question{Topic: topic, Type: qtype, Question: "prompt", Answer: answer}
	if qtype == models.TypeQuiz {
		q.Options = models.OptionList{answer, "B", "C", "D"}
	}
	require.NoError(t, h.Create(&q).Error)
	return q
}

func TestSubmitAnswerQuizIsCaseSensitive(t *testing.T) {
	h := newTestHandler(t)
	q := seedQuestion(t, h, "Geo", models.TypeQuiz, "Paris")

	w := httptest.NewRecorder()
	h.SubmitAnswer(w, authedRequest(t, "POST", "/api/study/answer", map[string]interface{}{
		"question_id": q.ID,
		"selected":    "paris",
	}))
	require.Equal(t, http.StatusOK, w.Code)

	var result AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Correct)
	assert.Equal(t, "Paris", result.Answer)

	var entry models.ProgressEntry
	require.NoError(t, h.First(&entry).Error)
	assert.Equal(t, "ana", entry.Username)
	assert.Equal(t, q.ID, entry.QuestionID)
	assert.False(t, entry.IsCorrect)
	assert.Equal(t, "paris", entry.UserAnswer)

	w = httptest.NewRecorder()
	h.SubmitAnswer(w, authedRequest(t, "POST", "/api/study/answer", map[string]interface{}{
		"question_id": q.ID,
		"selected":    "Paris",
	}))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Correct)

	var count int64
	h.Model(&models.ProgressEntry{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSubmitAnswerFlashcardSelfReport(t *testing.T) {
	h := newTestHandler(t)
	q := seedQuestion(t, h, "Geo", models.TypeFlashcard, "the answer")

	w := httptest.NewRecorder()
	h.SubmitAnswer(w, authedRequest(t, "POST", "/api/study/answer", map[string]interface{}{
		"question_id": q.ID,
		"knew":        false,
	}))
	require.Equal(t, http.StatusOK, w.Code)

	var entry models.ProgressEntry
	require.NoError(t, h.First(&entry).Error)
	assert.False(t, entry.IsCorrect)
	assert.Equal(t, review.SelfReportMissed, entry.UserAnswer)
}

func TestSubmitAnswerEssayNeedsGateway(t *testing.T) {
	h := newTestHandler(t)
	q := seedQuestion(t, h, "Geo", models.TypeEssay, "reference")

	w := httptest.NewRecorder()
	h.SubmitAnswer(w, authedRequest(t, "POST", "/api/study/answer", map[string]interface{}{
		"question_id": q.ID,
		"answer":      "my essay",
	}))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var count int64
	h.Model(&models.ProgressEntry{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.SubmitAnswer(w, authedRequest(t, "POST", "/api/study/answer", map[string]interface{}{
		"question_id": 99,
		"selected":    "A",
	}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStudySessionClampsCursor(t *testing.T) {
	h := newTestHandler(t)
	for i := 0; i < 3; i++ {
		seedQuestion(t, h, "Math", models.TypeQuiz, "A")
	}
	seedQuestion(t, h, "History", models.TypeEssay, "ref")

	w := httptest.NewRecorder()
	h.GetStudySession(w, authedRequest(t, "GET", "/api/study?topic=Math&q=7", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view StudyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 0, view.Index)
	require.NotNil(t, view.Question)
	assert.Equal(t, "Math", view.Question.Topic)
}

func TestGetStudySessionNextSaturates(t *testing.T) {
	h := newTestHandler(t)
	for i := 0; i < 3; i++ {
		seedQuestion(t, h, "Math", models.TypeQuiz, "A")
	}

	w := httptest.NewRecorder()
	h.GetStudySession(w, authedRequest(t, "GET", "/api/study?topic=Math&q=2&nav=next", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view StudyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Index)
}

func TestGetStudySessionFailedMode(t *testing.T) {
	h := newTestHandler(t)
	q1 := seedQuestion(t, h, "Math", models.TypeQuiz, "A")
	q2 := seedQuestion(t, h, "Math", models.TypeQuiz, "A")

	require.NoError(t, h.Create(&models.ProgressEntry{Username: "ana", QuestionID: q1.ID, IsCorrect: false}).Error)
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "ana", QuestionID: q2.ID, IsCorrect: true}).Error)
	// Another user's failures must not leak into ana's review set.
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "luis", QuestionID: q2.ID, IsCorrect: false}).Error)

	w := httptest.NewRecorder()
	h.GetStudySession(w, authedRequest(t, "GET", "/api/study?failed=true", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view StudyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 1, view.Total)
	require.NotNil(t, view.Question)
	assert.Equal(t, q1.ID, view.Question.ID)
}

func TestGetStudySessionEmptyFailedModeMessage(t *testing.T) {
	h := newTestHandler(t)
	seedQuestion(t, h, "Math", models.TypeQuiz, "A")

	w := httptest.NewRecorder()
	h.GetStudySession(w, authedRequest(t, "GET", "/api/study?failed=true", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view StudyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 0, view.Total)
	assert.Nil(t, view.Question)
	assert.Equal(t, "No failed questions pending. Nice work!", view.Message)
}

func TestClearHistoryOnlyTouchesCaller(t *testing.T) {
	h := newTestHandler(t)
	q := seedQuestion(t, h, "Math", models.TypeQuiz, "A")
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "ana", QuestionID: q.ID, IsCorrect: true}).Error)
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "luis", QuestionID: q.ID, IsCorrect: false}).Error)

	w := httptest.NewRecorder()
	h.ClearHistory(w, authedRequest(t, "DELETE", "/api/progress", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	var entries []models.ProgressEntry
	require.NoError(t, h.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "luis", entries[0].Username)
}

func TestDeleteTopicCascades(t *testing.T) {
	h := newTestHandler(t)
	mathQ := seedQuestion(t, h, "Math", models.TypeQuiz, "A")
	histQ := seedQuestion(t, h, "History", models.TypeQuiz, "A")
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "ana", QuestionID: mathQ.ID, IsCorrect: false}).Error)
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "ana", QuestionID: histQ.ID, IsCorrect: true}).Error)

	r := authedRequest(t, "DELETE", "/api/topics/Math", nil)
	r.SetPathValue("topic", "Math")
	w := httptest.NewRecorder()
	h.DeleteTopic(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)

	var questions []models.Question
	require.NoError(t, h.Find(&questions).Error)
	require.Len(t, questions, 1)
	assert.Equal(t, "History", questions[0].Topic)

	var entries []models.ProgressEntry
	require.NoError(t, h.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, histQ.ID, entries[0].QuestionID)
}

func TestWipeAllEmptiesBothTables(t *testing.T) {
	h := newTestHandler(t)
	q := seedQuestion(t, h, "Math", models.TypeQuiz, "A")
	require.NoError(t, h.Create(&models.ProgressEntry{Username: "ana", QuestionID: q.ID, IsCorrect: true}).Error)

	w := httptest.NewRecorder()
	h.WipeAll(w, authedRequest(t, "DELETE", "/api/questions", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	var qCount, pCount int64
	h.Model(&models.Question{}).Count(&qCount)
	h.Model(&models.ProgressEntry{}).Count(&pCount)
	assert.Equal(t, int64(0), qCount)
	assert.Equal(t, int64(0), pCount)
}
