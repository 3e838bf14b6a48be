package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrAIUnavailable is returned when no API key is configured. Callers
// disable the feature and tell the user instead of crashing.
var ErrAIUnavailable = errors.New("ai gateway is not configured")

// ErrAllModelsFailed is returned after the whole fallback ladder has
// been exhausted without a usable response.
var ErrAllModelsFailed = errors.New("all candidate models failed")

// GeneratedQuestion is one item of the extraction gateway's JSON
// response: {type, question, answer, options?}.
type GeneratedQuestion struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options,omitempty"`
}

// GradeResult is the grading gateway's verdict for a free-text answer.
type GradeResult struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// UploadedFile is one document handed to the extraction gateway.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AIService talks to an OpenAI-compatible endpoint for question
// extraction and essay grading. Generation runs through a fixed
// preference ladder of models: quota errors get a single retry after a
// fixed delay, any other failure skips straight to the next candidate.
type AIService struct {
	client       *openai.Client
	models       []string
	gradingModel string
	quotaDelay   time.Duration
}

var defaultModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"}

func NewAIService(apiKey, baseURL string, models []string, gradingModel string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if len(models) == 0 {
		models = defaultModels
	}
	if gradingModel == "" {
		gradingModel = models[0]
	}

	return &AIService{
		client:       openai.NewClientWithConfig(cfg),
		models:       models,
		gradingModel: gradingModel,
		quotaDelay:   5 * time.Second,
	}
}

// NewAIServiceFromEnv builds the service from AI_API_KEY, AI_BASE_URL,
// AI_MODELS (comma-separated ladder) and AI_GRADING_MODEL.
func NewAIServiceFromEnv() *AIService {
	var models []string
	for _, m := range strings.Split(os.Getenv("AI_MODELS"), ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return NewAIService(os.Getenv("AI_API_KEY"), os.Getenv("AI_BASE_URL"), models, os.Getenv("AI_GRADING_MODEL"))
}

// Disabled reports whether the gateway has no credentials.
func (s *AIService) Disabled() bool {
	return s.client == nil
}

const extractionPrompt = `You are an expert teacher creating high-quality exam material.
Analyze the attached documents (they may be PDFs, slides or notes) and produce a structured JSON list.

Identify the key concepts and create:
- "type": "flashcard" (key concepts), "quiz" (4-option test) or "essay" (open-ended question).
- "question": the clear, precise question.
- "answer": the complete correct answer.
- "options": (ONLY for type="quiz") an array of exactly 4 strings.

Generate a good number of varied questions at a high complexity level (at least 5 flashcards, 5 quiz, 3 essay).

Expected JSON format:
[
  {"type": "flashcard", "question": "...", "answer": "..."},
  {"type": "quiz", "question": "...", "options": ["A", "B", "C", "D"], "answer": "Correct option"},
  {"type": "essay", "question": "...", "answer": "Detailed explanation..."}
]`

// GenerateFromDocuments sends the uploaded documents with the fixed
// extraction prompt and returns the parsed question list. A malformed
// or empty response means "no questions produced", never a partial
// parse.
func (s *AIService) GenerateFromDocuments(ctx context.Context, files []UploadedFile) ([]GeneratedQuestion, error) {
	if s.Disabled() {
		return nil, ErrAIUnavailable
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
	}
	for _, f := range files {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", f.ContentType, base64.StdEncoding.EncodeToString(f.Data)),
			},
		})
	}

	req := openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: 0.2,
	}

	content, err := s.completeWithFallback(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseQuestions(content), nil
}

const topicPrompt = `Topic: %s
Existing questions (context, do not repeat them):
%s

Generate EXACTLY %d NEW and DIFFERENT questions distributed as:
- %d of type 'flashcard' (short question/answer)
- %d of type 'quiz' (multiple-choice with 4 options and the correct answer)
- %d of type 'essay' (open-ended/long-form question)

Strict JSON format:
[
  {"type": "flashcard", "question": "...", "answer": "..."},
  {"type": "quiz", "question": "...", "options": ["A", "B", "C", "D"], "answer": "Correct option"},
  {"type": "essay", "question": "...", "answer": "Expected explanation..."}
]`

// maxContextQuestions caps how many existing prompts travel with a
// "generate more" request.
const maxContextQuestions = 5

// GenerateForTopic asks for an exact distribution of new questions for
// an existing topic, passing a few existing prompts as dedup context.
func (s *AIService) GenerateForTopic(ctx context.Context, topic string, existing []string, nFlash, nQuiz, nEssay int) ([]GeneratedQuestion, error) {
	if s.Disabled() {
		return nil, ErrAIUnavailable
	}

	if len(existing) > maxContextQuestions {
		existing = existing[:maxContextQuestions]
	}
	total := nFlash + nQuiz + nEssay
	prompt := fmt.Sprintf(topicPrompt, topic, strings.Join(existing, "\n"), total, nFlash, nQuiz, nEssay)

	req := openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	}

	content, err := s.completeWithFallback(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseQuestions(content), nil
}

// GradeEssay asks the grading model for a verdict on a free-text
// answer. Grading never fails upward: a gateway error or an
// unparseable response comes back as incorrect with a fixed feedback
// string.
func (s *AIService) GradeEssay(ctx context.Context, question, reference, answer string) GradeResult {
	if s.Disabled() {
		return GradeResult{Correct: false, Feedback: "no API key configured"}
	}

	prompt := fmt.Sprintf(
		`Evaluate the answer. Question: %s. Reference context: %s. Answer: %s. Respond with JSON only: {"correct": bool, "feedback": string}`,
		question, reference, answer,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.gradingModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Printf("AIService: grading request failed: %v", err)
		return GradeResult{Correct: false, Feedback: "grading error"}
	}

	var result GradeResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Choices[0].Message.Content)), &result); err != nil {
		log.Printf("AIService: unparseable grading response: %v", err)
		return GradeResult{Correct: false, Feedback: "grading error"}
	}
	return result
}

// completeWithFallback walks the model ladder in preference order.
func (s *AIService) completeWithFallback(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	for _, model := range s.models {
		req.Model = model

		content, err := s.complete(ctx, req)
		if err == nil {
			return content, nil
		}

		if isQuotaError(err) {
			log.Printf("AIService: quota exhausted on %s, retrying once in %s", model, s.quotaDelay)
			select {
			case <-time.After(s.quotaDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			if content, err = s.complete(ctx, req); err == nil {
				return content, nil
			}
		}

		log.Printf("AIService: model %s failed: %v, trying next candidate", model, err)
	}
	return "", ErrAllModelsFailed
}

func (s *AIService) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// isQuotaError recognizes rate-limit/quota exhaustion, the only error
// class that earns a retry on the same model.
func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// parseQuestions decodes the extraction output. Malformed JSON is
// treated as no questions produced rather than salvaged.
func parseQuestions(content string) []GeneratedQuestion {
	var questions []GeneratedQuestion
	if err := json.Unmarshal([]byte(extractJSON(content)), &questions); err != nil {
		log.Printf("AIService: unparseable extraction response: %v", err)
		return nil
	}
	return questions
}

// extractJSON strips markdown code fences and surrounding prose from a
// model response, leaving the outermost JSON value.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		start := 3
		if i := strings.Index(content[start:], "\n"); i != -1 {
			start += i + 1
		}
		if end := strings.Index(content[start:], "```"); end != -1 {
			content = content[start : start+end]
		} else {
			content = content[start:]
		}
		content = strings.TrimSpace(content)
	}

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")
	switch {
	case arrStart != -1 && (objStart == -1 || arrStart < objStart):
		if end := strings.LastIndex(content, "]"); end > arrStart {
			content = content[arrStart : end+1]
		}
	case objStart != -1:
		if end := strings.LastIndex(content, "}"); end > objStart {
			content = content[objStart : end+1]
		}
	}

	return strings.TrimSpace(content)
}
