package htmlutils

import (
	"strings"
	"testing"
)

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"hello", 5},
		{"привет", 6},
		{"🔥", 2},
		{"a🔥b", 4},
	}

	for _, tt := range tests {
		if got := utf16Len(tt.input); got != tt.expected {
			t.Errorf("utf16Len(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestUTF16Slice(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"hello", 3, "hel"},
		{"hello", 10, "hello"},
		{"a🔥b", 2, "a"},
		{"a🔥b", 3, "a🔥"},
	}

	for _, tt := range tests {
		if got := utf16Slice(tt.input, tt.max); got != tt.expected {
			t.Errorf("utf16Slice(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain",
			input:    "Hello World",
			expected: "Hello World",
		},
		{
			name:     "inline tags",
			input:    "<b>Fresh</b> <i>stock</i> today",
			expected: "Fresh stock today",
		},
		{
			name:     "paragraphs",
			input:    "<p>First</p><p>Second</p>",
			expected: "First\nSecond",
		},
		{
			name:     "line breaks",
			input:    "one<br>two<br/>three",
			expected: "one\ntwo\nthree",
		},
		{
			name:     "entities",
			input:    "Tom &amp; Jerry &lt;3",
			expected: "Tom & Jerry <3",
		},
		{
			name:     "script dropped",
			input:    "<p>Visible</p><script>var x = 1;</script><style>p{}</style>",
			expected: "Visible",
		},
		{
			name:     "whitespace collapsed",
			input:    "<div>  lots   of\tspace  </div>",
			expected: "lots of space",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.input); got != tt.expected {
				t.Errorf("PlainText() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	if got := Escape(`<b>"x" & y</b>`); got != "&lt;b&gt;&#34;x&#34; &amp; y&lt;/b&gt;" {
		t.Errorf("Escape() = %q", got)
	}
}

func TestSplitMessage(t *testing.T) {
	t.Run("short message unchanged", func(t *testing.T) {
		parts := SplitMessage("short", 100)
		if len(parts) != 1 || parts[0] != "short" {
			t.Errorf("SplitMessage() = %q", parts)
		}
	})

	t.Run("splits at line boundaries", func(t *testing.T) {
		text := "line one\nline two\nline three"

		parts := SplitMessage(text, 18)
		if len(parts) != 2 {
			t.Fatalf("expected 2 parts, got %d: %q", len(parts), parts)
		}

		if parts[0] != "line one\nline two" || parts[1] != "line three" {
			t.Errorf("unexpected parts: %q", parts)
		}
	})

	t.Run("cuts long lines", func(t *testing.T) {
		text := strings.Repeat("a", 25)

		parts := SplitMessage(text, 10)
		if len(parts) != 3 {
			t.Fatalf("expected 3 parts, got %d", len(parts))
		}

		for _, p := range parts {
			if utf16Len(p) > 10 {
				t.Errorf("part exceeds limit: %q", p)
			}
		}

		if strings.Join(parts, "") != text {
			t.Error("parts do not reassemble the input")
		}
	})

	t.Run("respects surrogate pairs", func(t *testing.T) {
		text := strings.Repeat("🔥", 5)

		parts := SplitMessage(text, 3)
		for _, p := range parts {
			if utf16Len(p) > 3 {
				t.Errorf("part exceeds limit: %q", p)
			}
		}

		if strings.Join(parts, "") != text {
			t.Error("parts do not reassemble the input")
		}
	})
}
