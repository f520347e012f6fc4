package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"age":   map[string]any{"type": "integer"},
			"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			"steps": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"name", "age"},
	}

	s := geminiSchema(def)

	if s.Type != genai.TypeObject {
		t.Fatalf("type = %s, want OBJECT", s.Type)
	}
	if len(s.Properties) != 4 {
		t.Fatalf("properties = %d, want 4", len(s.Properties))
	}
	if s.Properties["age"].Type != genai.TypeInteger {
		t.Errorf("age type = %s", s.Properties["age"].Type)
	}
	if len(s.Properties["grade"].Enum) != 3 {
		t.Errorf("grade enum = %v", s.Properties["grade"].Enum)
	}
	if s.Properties["steps"].Items.Type != genai.TypeString {
		t.Errorf("steps items type = %s", s.Properties["steps"].Items.Type)
	}
	if len(s.Required) != 2 {
		t.Errorf("required = %v", s.Required)
	}
}

func TestGeminiSchema_UnknownTypeDefaultsToString(t *testing.T) {
	if s := geminiSchema(map[string]any{"type": "date"}); s.Type != genai.TypeString {
		t.Fatalf("type = %s, want STRING", s.Type)
	}
}

func TestGeminiContents(t *testing.T) {
	got := geminiContents([]Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}})
	if got[0].Role != "user" || got[1].Role != "model" {
		t.Fatalf("roles = %q, %q", got[0].Role, got[1].Role)
	}
}
