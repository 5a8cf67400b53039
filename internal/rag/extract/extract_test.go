package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"testing/quick"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"plain", `start_json_{"a":1}_end_json`, `{"a":1}`, false},
		{"trimmed", "Sure! start_json_ \n {\"a\":1} \n _end_json thanks", `{"a":1}`, false},
		{"first pair wins", "start_json_ one _end_json start_json_ two _end_json", "one", false},
		{"end before start is skipped", "_end_json start_json_ x _end_json", "x", false},
		{"empty payload", "start_json__end_json", "", false},
		{"no start", `{"a":1}_end_json`, "", true},
		{"no end", `start_json_{"a":1}`, "", true},
		{"only end before start", "_end_json then start_json_ {}", "", true},
		{"no markers", "I could not do that.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.text)
			if tt.wantErr {
				if !errors.Is(err, commonModels.ErrExtractionFailed) {
					t.Errorf("Extract(%q) error = %v, want ErrExtractionFailed", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract(%q) failed: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtract_RoundTripProperty(t *testing.T) {
	property := func(prefix, payload, suffix string) bool {
		if strings.Contains(prefix, StartMarker) || strings.Contains(payload, EndMarker) ||
			strings.Contains(StartMarker+payload, EndMarker) {
			return true
		}
		got, err := Extract(prefix + StartMarker + payload + EndMarker + suffix)
		return err == nil && got == strings.TrimSpace(payload)
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestExtract_NoMarkersAlwaysFails(t *testing.T) {
	property := func(text string) bool {
		if strings.Contains(text, StartMarker) {
			return true
		}
		_, first := Extract(text)
		_, second := Extract(text)
		return errors.Is(first, commonModels.ErrExtractionFailed) && first.Error() == second.Error()
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestDecodeQuiz(t *testing.T) {
	valid := `{"questions":[{"question":"What is the capital of France?","options":{"a":"Berlin","b":"Madrid","c":"Paris","d":"Rome"},"answer":"C"}]}`

	quiz, err := DecodeQuiz(valid)
	if err != nil {
		t.Fatalf("DecodeQuiz failed: %v", err)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].Answer != "c" {
		t.Errorf("DecodeQuiz() = %+v", quiz)
	}

	if _, err := DecodeQuiz("```json\n" + valid + "\n```"); err != nil {
		t.Errorf("fenced payload rejected: %v", err)
	}

	bad := []struct {
		name    string
		payload string
	}{
		{"not json", "questions: none"},
		{"empty", `{"questions":[]}`},
		{"answer out of range", `{"questions":[{"question":"q","options":{"a":"1","b":"2","c":"3","d":"4"},"answer":"e"}]}`},
		{"missing option", `{"questions":[{"question":"q","options":{"a":"1","b":"2","c":"3"},"answer":"a"}]}`},
		{"trailing data", valid + ` {"x":1}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeQuiz(tt.payload); !errors.Is(err, commonModels.ErrPayloadInvalid) {
				t.Errorf("DecodeQuiz(%q) error = %v, want ErrPayloadInvalid", tt.payload, err)
			}
		})
	}
}

func TestDecodeFlashcards(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		wantConcepts int
		wantQA       int
		wantErr      bool
	}{
		{"concepts", `{"concepts":[{"concept":"photosynthesis","explanation":"converts light to chemical energy"}]}`, 1, 0, false},
		{"questions", `{"questions":[{"question":"Capital of France?","answer":"Paris"},{"question":"Red planet?","answer":"Mars"}]}`, 0, 2, false},
		{"neither", `{"cards":[]}`, 0, 0, true},
		{"incomplete concept", `{"concepts":[{"concept":"x"}]}`, 0, 0, true},
		{"broken json", `{"concepts":[`, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := DecodeFlashcards(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, commonModels.ErrPayloadInvalid) {
					t.Errorf("error = %v, want ErrPayloadInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeFlashcards failed: %v", err)
			}
			if len(cards.Concepts) != tt.wantConcepts || len(cards.Questions) != tt.wantQA {
				t.Errorf("DecodeFlashcards() = %+v", cards)
			}
		})
	}
}

func TestExtractThenDecode(t *testing.T) {
	raw := `start_json_{"concepts":[{"concept":"photosynthesis","explanation":"converts light to chemical energy"}]}_end_json`
	payload, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !json.Valid([]byte(payload)) {
		t.Fatalf("payload is not JSON: %q", payload)
	}
	_, cards, err := Decode(commonModels.TaskFlashcards, payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(cards.Concepts) != 1 {
		t.Errorf("expected 1 concept, got %d", len(cards.Concepts))
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"plain", ` {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"not json", "hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.payload); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}
