// Package prompt renders backend-ready prompts for each task from retrieved
// passages and the user's message.
package prompt

import (
	"fmt"
	"strings"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/extract"
)

// FlashcardConfig selects the flashcard shape. Count 0 means the variant's
// default.
type FlashcardConfig struct {
	Variant string
	Count   int
}

func (f FlashcardConfig) count() int {
	if f.Count > 0 {
		return f.Count
	}
	if f.Variant == config.FlashcardVariantQuestions {
		return 4
	}
	return 8
}

var quizInstruction = "Generate a quiz from this document. Let the quiz be made up of 10 questions, " +
	"with 4 options each, and one correct answer. Let the difficulty level be hard. " +
	"The questions should be formatted in json, json should start with a " + extract.StartMarker +
	" tag and end with a " + extract.EndMarker + " tag. For example here's is a sample response: " +
	extract.StartMarker + ` { "questions": [ { "question": "What is the capital of France?", ` +
	`"options": { "a": "Berlin", "b": "Madrid", "c": "Paris", "d": "Rome" }, "answer": "c" }, ` +
	`{ "question": "Which planet is known as the Red Planet?", ` +
	`"options": { "a": "Earth", "b": "Mars", "c": "Jupiter", "d": "Venus" }, "answer": "b" } ]} ` +
	extract.EndMarker

const questionCardsInstruction = "Generate question and answer pairs from this document. Let there be %d question and answer pairs. " +
	"The pairs should be formatted in json, json should start with a %s tag and end with a %s tag. " +
	`For example here's is a sample response: %s { "questions": [ { "question": "What is the capital of France?", "answer": "Paris" }, ` +
	`{ "question": "Which planet is known as the Red Planet?", "answer": "Mars" } ]} %s`

const conceptCardsInstruction = "Pick the %d most important concepts in this document and explain each in one or two sentences. " +
	"The concepts should be formatted in json, json should start with a %s tag and end with a %s tag. " +
	`For example here's is a sample response: %s { "concepts": [ { "concept": "Photosynthesis", "explanation": "The process plants use to turn light into chemical energy." }, ` +
	`{ "concept": "Chlorophyll", "explanation": "The green pigment that absorbs light for photosynthesis." } ]} %s`

const chatInstruction = "Given the context information above, answer the query below. " +
	"Use the context if it is relevant to the query, otherwise answer normally."

// Assemble builds the prompt for one task. Quiz and flashcard prompts always
// carry the payload delimiter instruction.
func Assemble(kind commonModels.TaskKind, passages []commonModels.Passage, message string, cards FlashcardConfig) (string, error) {
	var b strings.Builder

	switch kind {
	case commonModels.TaskChat:
		if strings.TrimSpace(message) == "" {
			return "", fmt.Errorf("%w: chat requires a message", commonModels.ErrInvalidRequest)
		}
		writeContexts(&b, passages)
		b.WriteString(chatInstruction)
		b.WriteString("\nQuery: ")
		b.WriteString(message)
		b.WriteString("\nAnswer:")

	case commonModels.TaskQuiz:
		b.WriteString(quizInstruction)
		b.WriteString("\n\n")
		writeContexts(&b, passages)

	case commonModels.TaskFlashcards:
		instruction := conceptCardsInstruction
		if cards.Variant == config.FlashcardVariantQuestions {
			instruction = questionCardsInstruction
		}
		fmt.Fprintf(&b, instruction, cards.count(),
			extract.StartMarker, extract.EndMarker, extract.StartMarker, extract.EndMarker)
		b.WriteString("\n\n")
		writeContexts(&b, passages)

	default:
		return "", fmt.Errorf("%w: unknown task %q", commonModels.ErrInvalidRequest, kind)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func writeContexts(b *strings.Builder, passages []commonModels.Passage) {
	for i, p := range passages {
		fmt.Fprintf(b, "Context %d:\n%s\n\n", i+1, strings.TrimSpace(p.Text))
	}
}
