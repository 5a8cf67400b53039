package commonModels

import (
	"encoding/json"
	"fmt"
)

// Document is an uploaded file addressed by its storage key. Text is derived
// on demand and never cached across requests.
type Document struct {
	Name    string `json:"doc_name"`
	Locator string `json:"locator"`
	Text    string `json:"-"`
}

// Passage is a contiguous span of document text. Rank is its position in the
// source text and breaks score ties.
type Passage struct {
	Rank  int     `json:"rank"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type TaskKind string

const (
	TaskChat       TaskKind = "chat"
	TaskQuiz       TaskKind = "quiz"
	TaskFlashcards TaskKind = "flashcards"
)

func ParseTaskKind(s string) (TaskKind, error) {
	switch k := TaskKind(s); k {
	case TaskChat, TaskQuiz, TaskFlashcards:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown task %q", ErrInvalidRequest, s)
}

// Structured reports whether the task's reply carries a delimited JSON payload.
func (k TaskKind) Structured() bool {
	return k == TaskQuiz || k == TaskFlashcards
}

// GenerationRequest is immutable once built; pass it by value.
type GenerationRequest struct {
	Document string   `json:"filename"`
	Task     TaskKind `json:"task"`
	Model    string   `json:"model,omitempty"`
	Message  string   `json:"message,omitempty"`
}

func (r GenerationRequest) Validate() error {
	if r.Document == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidRequest)
	}
	if _, err := ParseTaskKind(string(r.Task)); err != nil {
		return err
	}
	if r.Task == TaskChat && r.Message == "" {
		return fmt.Errorf("%w: chat requires a message", ErrInvalidRequest)
	}
	return nil
}

// GenerationResult always carries the raw backend text. Payload is set only
// when extraction succeeded; Quiz or Flashcards only when it also decoded.
type GenerationResult struct {
	Task       TaskKind        `json:"task"`
	Backend    string          `json:"backend"`
	Raw        string          `json:"raw"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Quiz       *Quiz           `json:"quiz,omitempty"`
	Flashcards *Flashcards     `json:"flashcards,omitempty"`
	Passages   []Passage       `json:"passages,omitempty"`
}

type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Question string      `json:"question"`
	Options  QuizOptions `json:"options"`
	Answer   string      `json:"answer"`
}

type QuizOptions struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Flashcards holds whichever shape the deployment asked for.
type Flashcards struct {
	Questions []QuestionAnswer `json:"questions,omitempty"`
	Concepts  []Concept        `json:"concepts,omitempty"`
}

type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Concept struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
}
