package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOCTUTOR_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Index.TopK != DefaultTopK {
		t.Errorf("TopK got %d, want %d", s.Index.TopK, DefaultTopK)
	}
	if s.Embedding.Provider != EmbeddingProviderLocal {
		t.Errorf("Embedding provider got %s, want %s", s.Embedding.Provider, EmbeddingProviderLocal)
	}
}

func TestLoad_EmbeddingProviderFollowsKeys(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "local.yaml")
	if err := os.WriteFile(explicit, []byte("embedding:\n  provider: local\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		key      string
		provider string
		want     string
	}{
		{"no key", "", "", "", EmbeddingProviderLocal},
		{"openai key", "", "sk-test", "", EmbeddingProviderOpenAI},
		{"env wins", "", "sk-test", EmbeddingProviderGoogle, EmbeddingProviderGoogle},
		{"yaml wins", explicit, "sk-test", "", EmbeddingProviderLocal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DOCTUTOR_CONFIG", "")
			t.Setenv("OPENAI_API_KEY", tt.key)
			t.Setenv("EMBEDDING_PROVIDER", tt.provider)

			s, err := Load(tt.path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if s.Embedding.Provider != tt.want {
				t.Errorf("Embedding provider got %s, want %s", s.Embedding.Provider, tt.want)
			}
		})
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doctutor.yaml")
	yml := `
listen_addr: ":4000"
index:
  backend: memory
  top_k: 5
  passage_max_chars: 400
flashcards:
  variant: questions
  count: 4
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LISTEN_ADDR", ":5000")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ListenAddr != ":5000" {
		t.Errorf("env should win over yaml, got %s", s.ListenAddr)
	}
	if s.Index.TopK != 5 || s.Index.PassageMaxChar != 400 {
		t.Errorf("yaml index settings not applied: %+v", s.Index)
	}
	if s.Flashcards.Variant != FlashcardVariantQuestions || s.Flashcards.Count != 4 {
		t.Errorf("flashcard settings not applied: %+v", s.Flashcards)
	}
	if s.Backends.OpenAIKey != "sk-test" {
		t.Errorf("OpenAI key not read from env")
	}
	if s.Index.QdrantPort != QdrantGrpcPort {
		t.Errorf("unset yaml fields should keep defaults, got port %d", s.Index.QdrantPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"bad embedding", func(s *Settings) { s.Embedding.Provider = "onnx" }, true},
		{"bad index", func(s *Settings) { s.Index.Backend = "faiss" }, true},
		{"bad variant", func(s *Settings) { s.Flashcards.Variant = "cards" }, true},
		{"bad count", func(s *Settings) { s.Flashcards.Count = 5 }, true},
		{"zero attempts", func(s *Settings) { s.Retry.MaxAttempts = 0 }, true},
		{"qdrant", func(s *Settings) { s.Index.Backend = IndexBackendQdrant }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
