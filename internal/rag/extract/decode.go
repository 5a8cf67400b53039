package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", commonModels.ErrPayloadInvalid, fmt.Sprintf(format, args...))
}

// Clean strips the markdown code fence models often wrap the payload in.
func Clean(payload string) string {
	payload = strings.TrimSpace(payload)
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")
	return strings.TrimSpace(payload)
}

func decodeStrict(payload string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(Clean(payload))))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", commonModels.ErrPayloadInvalid, err)
	}
	if dec.More() {
		return invalid("trailing data after JSON object")
	}
	return nil
}

// DecodeQuiz parses and validates a quiz payload: at least one question, each
// with all four options and an answer among a-d.
func DecodeQuiz(payload string) (*commonModels.Quiz, error) {
	var quiz commonModels.Quiz
	if err := decodeStrict(payload, &quiz); err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, invalid("quiz has no questions")
	}

	var errs []error
	for i, q := range quiz.Questions {
		if strings.TrimSpace(q.Question) == "" {
			errs = append(errs, invalid("question %d is empty", i+1))
		}
		o := q.Options
		if o.A == "" || o.B == "" || o.C == "" || o.D == "" {
			errs = append(errs, invalid("question %d is missing options", i+1))
		}
		answer := strings.ToLower(strings.TrimSpace(q.Answer))
		switch answer {
		case "a", "b", "c", "d":
			quiz.Questions[i].Answer = answer
		default:
			errs = append(errs, invalid("question %d has answer %q", i+1, q.Answer))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// DecodeFlashcards accepts either the question/answer or the concept shape.
func DecodeFlashcards(payload string) (*commonModels.Flashcards, error) {
	var cards commonModels.Flashcards
	if err := decodeStrict(payload, &cards); err != nil {
		return nil, err
	}
	if len(cards.Questions) == 0 && len(cards.Concepts) == 0 {
		return nil, invalid("flashcards have neither questions nor concepts")
	}

	var errs []error
	for i, qa := range cards.Questions {
		if strings.TrimSpace(qa.Question) == "" || strings.TrimSpace(qa.Answer) == "" {
			errs = append(errs, invalid("card %d is incomplete", i+1))
		}
	}
	for i, c := range cards.Concepts {
		if strings.TrimSpace(c.Concept) == "" || strings.TrimSpace(c.Explanation) == "" {
			errs = append(errs, invalid("concept %d is incomplete", i+1))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cards, nil
}

// Decode dispatches on task kind. Chat has no structured payload.
func Decode(kind commonModels.TaskKind, payload string) (*commonModels.Quiz, *commonModels.Flashcards, error) {
	switch kind {
	case commonModels.TaskQuiz:
		q, err := DecodeQuiz(payload)
		return q, nil, err
	case commonModels.TaskFlashcards:
		f, err := DecodeFlashcards(payload)
		return nil, f, err
	}
	return nil, nil, fmt.Errorf("%w: task %q has no payload", commonModels.ErrInvalidRequest, kind)
}
