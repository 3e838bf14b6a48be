package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/spirow73/study-ai-pro/models"
	"github.com/spirow73/study-ai-pro/services"
	"github.com/spirow73/study-ai-pro/utils"
)

const maxUploadBytes = 32 << 20

// GenerateFromDocuments takes a multipart upload of course documents
// plus a required topic, keeps a copy of every file, sends them through
// the extraction gateway and persists the resulting question batch.
func (db *DBHandler) GenerateFromDocuments(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		log.Printf("GenerateFromDocuments: Invalid multipart form: %v", err)
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	topic := strings.TrimSpace(r.FormValue("topic"))
	if topic == "" {
		http.Error(w, "A topic name is required to organize the questions", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		http.Error(w, "Upload at least one file", http.StatusBadRequest)
		return
	}

	var files []services.UploadedFile
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			log.Printf("GenerateFromDocuments: Failed to open upload %s: %v", fh.Filename, err)
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			log.Printf("GenerateFromDocuments: Failed to read upload %s: %v", fh.Filename, err)
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}

		contentType := fh.Header.Get("Content-Type")
		files = append(files, services.UploadedFile{
			Name:        fh.Filename,
			ContentType: contentType,
			Data:        data,
		})

		// Keep a copy; a storage failure only costs the copy, never the
		// generation run.
		db.storeDocumentCopy(username, fh.Filename, contentType, data)
	}

	questions, err := db.AI.GenerateFromDocuments(r.Context(), files)
	if err != nil {
		db.writeGenerationError(w, "GenerateFromDocuments", err)
		return
	}
	if len(questions) == 0 {
		http.Error(w, "The documents produced no questions", http.StatusUnprocessableEntity)
		return
	}

	created, err := db.saveQuestions(questions, topic)
	if err != nil {
		log.Printf("GenerateFromDocuments: Failed to save questions: %v", err)
		http.Error(w, "Failed to save questions", http.StatusInternalServerError)
		return
	}

	log.Printf("GenerateFromDocuments: Created %d questions for topic %q", len(created), topic)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GenerateForTopic asks for an exact distribution of extra questions
// under an existing topic, using a few stored prompts as dedup context.
func (db *DBHandler) GenerateForTopic(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUsername(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic := r.PathValue("topic")
	if topic == "" {
		http.Error(w, "Topic is required", http.StatusBadRequest)
		return
	}

	var req struct {
		Flashcards int `json:"flashcards"`
		Quiz       int `json:"quiz"`
		Essay      int `json:"essay"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Flashcards < 0 || req.Quiz < 0 || req.Essay < 0 || req.Flashcards+req.Quiz+req.Essay == 0 {
		http.Error(w, "Request at least one question", http.StatusBadRequest)
		return
	}

	var existing []string
	if err := db.Model(&models.Question{}).
		Where("topic = ?", topic).
		Order("id").
		Limit(5).
		Pluck("question", &existing).Error; err != nil {
		log.Printf("GenerateForTopic: Failed to load existing questions for %q: %v", topic, err)
		http.Error(w, "Failed to load existing questions", http.StatusInternalServerError)
		return
	}

	questions, err := db.AI.GenerateForTopic(r.Context(), topic, existing, req.Flashcards, req.Quiz, req.Essay)
	if err != nil {
		db.writeGenerationError(w, "GenerateForTopic", err)
		return
	}
	if len(questions) == 0 {
		http.Error(w, "No questions were generated, try again", http.StatusUnprocessableEntity)
		return
	}

	created, err := db.saveQuestions(questions, topic)
	if err != nil {
		log.Printf("GenerateForTopic: Failed to save questions: %v", err)
		http.Error(w, "Failed to save questions", http.StatusInternalServerError)
		return
	}

	log.Printf("GenerateForTopic: Created %d questions for topic %q", len(created), topic)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (db *DBHandler) writeGenerationError(w http.ResponseWriter, handler string, err error) {
	switch {
	case errors.Is(err, services.ErrAIUnavailable):
		http.Error(w, "Question generation is disabled: no AI credentials configured", http.StatusServiceUnavailable)
	case errors.Is(err, services.ErrAllModelsFailed):
		http.Error(w, "Could not generate content with any of the configured models", http.StatusBadGateway)
	default:
		log.Printf("%s: Generation failed: %v", handler, err)
		http.Error(w, "Question generation failed", http.StatusBadGateway)
	}
}

// saveQuestions persists one extraction batch under a topic.
func (db *DBHandler) saveQuestions(generated []services.GeneratedQuestion, topic string) ([]models.Question, error) {
	if topic == "" {
		topic = models.DefaultTopic
	}

	questions := make([]models.Question, 0, len(generated))
	for _, g := range generated {
		q := models.Question{
			Topic:    topic,
			Type:     g.Type,
			Question: g.Question,
			Answer:   g.Answer,
		}
		if g.Type == models.TypeQuiz {
			q.Options = models.OptionList(g.Options)
		}
		questions = append(questions, q)
	}

	if err := db.Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (db *DBHandler) storeDocumentCopy(username, filename, contentType string, data []byte) {
	path, err := db.Storage.Save(username, filename, data)
	if err != nil {
		log.Printf("GenerateFromDocuments: Could not store a copy of %s: %v", filename, err)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		log.Printf("GenerateFromDocuments: Failed to generate document ID: %v", err)
		return
	}

	doc := models.Document{
		PublicID:    publicID,
		Username:    username,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		StoragePath: path,
	}
	if err := db.Create(&doc).Error; err != nil {
		log.Printf("GenerateFromDocuments: Failed to record document %s: %v", filename, err)
	}
}

// ListQuestions returns every stored question in insertion order.
func (db *DBHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var questions []models.Question
	if err := db.Order("id").Find(&questions).Error; err != nil {
		http.Error(w, "Failed to fetch questions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(questions)
}

// ListTopics returns the topics currently in the store with their
// question counts.
func (db *DBHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	type TopicCount struct {
		Topic string `json:"topic"`
		Count int64  `json:"count"`
	}
	var topics []TopicCount
	if err := db.Model(&models.Question{}).
		Select("topic, count(*) as count").
		Group("topic").
		Order("topic").
		Scan(&topics).Error; err != nil {
		http.Error(w, "Failed to fetch topics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(topics)
}

// DeleteTopic removes every question under a topic and cascades over
// the progress rows referencing those question IDs.
func (db *DBHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUsername(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	topic := r.PathValue("topic")
	if topic == "" {
		http.Error(w, "Topic is required", http.StatusBadRequest)
		return
	}

	var questionIDs []uint
	if err := db.Model(&models.Question{}).Where("topic = ?", topic).Pluck("id", &questionIDs).Error; err != nil {
		http.Error(w, "Failed to fetch topic questions", http.StatusInternalServerError)
		return
	}
	if len(questionIDs) == 0 {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.ProgressEntry{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete topic progress", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("topic = ?", topic).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to delete topic questions", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	log.Printf("DeleteTopic: Removed topic %q with %d questions", topic, len(questionIDs))
	w.WriteHeader(http.StatusNoContent)
}

// WipeAll deletes every question and every progress row. Destructive
// and irreversible, mirroring the danger-zone action of the UI.
func (db *DBHandler) WipeAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUsername(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		http.Error(w, "Could not begin transaction", http.StatusInternalServerError)
		return
	}

	if err := tx.Where("1 = 1").Delete(&models.ProgressEntry{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to wipe progress", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("1 = 1").Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Failed to wipe questions", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Could not commit transaction", http.StatusInternalServerError)
		return
	}

	log.Printf("WipeAll: Cleared the whole question store and progress log")
	w.WriteHeader(http.StatusNoContent)
}
