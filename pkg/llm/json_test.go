package llm

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"descriptions": ["Primary key", "Customer email"]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := "<think>\nThe user wants column descriptions.\n</think>\n{\"descriptions\": [\"a\"]}"
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"descriptions": ["a"]}` {
		t.Errorf("unexpected result %q", result)
	}
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	input := "Here you go:\n```json\n{\"descriptions\": [\"x\"]}\n```\nThanks"
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"descriptions": ["x"]}` {
		t.Errorf("unexpected result %q", result)
	}
}

func TestExtractJSON_BracketsInStrings(t *testing.T) {
	input := `{"descriptions": ["Array like [1,2] values", "Braces {x}"]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_Truncated(t *testing.T) {
	if _, err := ExtractJSON(`{"descriptions": ["complete", "cut off he`); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, err := ExtractJSON("I cannot help with that."); err == nil {
		t.Error("expected error when no JSON is present")
	}
}

func TestParseJSONResponse_Object(t *testing.T) {
	type payload struct {
		Descriptions []string `json:"descriptions"`
	}

	result, err := ParseJSONResponse[payload](`<think>ok</think>{"descriptions": ["one", "two"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Descriptions, []string{"one", "two"}) {
		t.Errorf("unexpected descriptions %v", result.Descriptions)
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	result, err := ParseJSONResponse[[]string](`["one", "two"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 || result[1] != "two" {
		t.Errorf("unexpected result %v", result)
	}
}

func TestSalvageStringArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "drops unterminated trailing string",
			input: `{"descriptions": ["Primary key", "Customer email", "Date the ord`,
			want:  []string{"Primary key", "Customer email"},
		},
		{
			name:  "trailing comma after complete entry",
			input: `{"descriptions": ["Primary key", "Customer email",`,
			want:  []string{"Primary key", "Customer email"},
		},
		{
			name:  "escaped quotes survive",
			input: `{"descriptions": ["The \"main\" id", "Cut`,
			want:  []string{`The "main" id`},
		},
		{
			name:  "no space after colon",
			input: `{"descriptions":["a","b"`,
			want:  []string{"a", "b"},
		},
		{
			name:  "null keeps its position",
			input: `{"descriptions": ["a", null, "c", "d`,
			want:  []string{"a", "", "c"},
		},
		{
			name:  "complete array is read in full",
			input: `{"descriptions": ["a", "b"]}`,
			want:  []string{"a", "b"},
		},
		{
			name:  "key mentioned in prose first",
			input: `The "descriptions" follow. {"descriptions": ["a", "b`,
			want:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SalvageStringArray(tt.input, "descriptions")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSalvageStringArray_NothingToRecover(t *testing.T) {
	inputs := []string{
		`{"other": ["a"]}`,
		`{"descriptions": ["only a partial entr`,
		`{"descriptions": []}`,
		``,
	}
	for _, input := range inputs {
		if _, err := SalvageStringArray(input, "descriptions"); !errors.Is(err, ErrNoSalvage) {
			t.Errorf("input %q: expected ErrNoSalvage, got %v", input, err)
		}
	}
}
