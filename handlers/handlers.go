package handlers

import (
	"gorm.io/gorm"

	"github.com/spirow73/study-ai-pro/services"
)

type DBHandler struct {
	*gorm.DB
	AI      *services.AIService
	Storage *services.StorageService
}
