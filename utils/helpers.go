package utils

import (
	"net/http"

	"github.com/spirow73/study-ai-pro/middleware"
)

func GetUsername(r *http.Request) (string, bool) {
	username, ok := r.Context().Value(middleware.ContextKey{}).(string)
	if !ok || username == "" {
		return "", false
	}
	return username, true
}
