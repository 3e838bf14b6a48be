package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/spirow73/study-ai-pro/models"
	"github.com/spirow73/study-ai-pro/utils"
)

// ListDocuments returns the calling user's stored uploads.
func (db *DBHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var documents []models.Document
	if err := db.Where("username = ?", username).Order("id").Find(&documents).Error; err != nil {
		http.Error(w, "Failed to fetch documents", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(documents)
}

// GetDocument streams a stored upload back to its owner.
func (db *DBHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	username, ok := utils.GetUsername(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	documentID := r.PathValue("documentID")
	if documentID == "" {
		http.Error(w, "Document ID is required", http.StatusBadRequest)
		return
	}

	var document models.Document
	if err := db.Where("public_id = ?", documentID).First(&document).Error; err != nil {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	if document.Username != username {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	f, err := db.Storage.Open(document.StoragePath)
	if err != nil {
		log.Printf("GetDocument: Failed to open stored file for %s: %v", documentID, err)
		http.Error(w, "Stored file is missing", http.StatusNotFound)
		return
	}
	defer f.Close()

	if document.ContentType != "" {
		w.Header().Set("Content-Type", document.ContentType)
	}
	if _, err := io.Copy(w, f); err != nil {
		log.Printf("GetDocument: Failed to stream %s: %v", documentID, err)
	}
}
