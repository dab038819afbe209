package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := New()

	t.Run("lowercases and stems content words", func(t *testing.T) {
		tokens := n.Normalize("Crash on STARTUP with null pointer")
		assert.Contains(t, tokens, "crash")
		assert.Contains(t, tokens, "startup")
		assert.Contains(t, tokens, "null")
		assert.Contains(t, tokens, "pointer")
	})

	t.Run("removes stopwords", func(t *testing.T) {
		tokens := n.Normalize("the crash is on the startup")
		assert.NotContains(t, tokens, "the")
		assert.NotContains(t, tokens, "is")
		assert.NotContains(t, tokens, "on")
	})

	t.Run("drops empty and single-character tokens", func(t *testing.T) {
		tokens := n.Normalize("a b c - + x crash")
		for _, tok := range tokens {
			assert.Greater(t, len(tok), 1, "token %q too short", tok)
		}
		assert.Contains(t, tokens, "crash")
	})

	t.Run("strips non-alphanumerics", func(t *testing.T) {
		tokens := n.Normalize("crash!!! (startup); [pointer]")
		for _, tok := range tokens {
			assert.Regexp(t, "^[a-z0-9]+$", tok)
		}
	})

	t.Run("empty input yields no tokens", func(t *testing.T) {
		assert.Empty(t, n.Normalize(""))
		assert.Empty(t, n.Normalize("   \n\t  "))
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "Crash on startup with null pointer in widget.cpp"
		assert.Equal(t, n.Normalize(text), n.Normalize(text))
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New()
	inputs := []string{
		"Crash on startup with null pointer",
		"Unrelated unicode rendering bug",
		"browser freezes when loading https://example.com/page after update",
		"segfault at 0xDEADBEEF1234 in libxul.so during shutdown",
	}
	for _, text := range inputs {
		first := n.Normalize(text)
		require.NotEmpty(t, first)
		second := n.Normalize(strings.Join(first, " "))
		assert.Equal(t, first, second, "normalization not idempotent for %q", text)
	}
}

func TestNormalizeJoined(t *testing.T) {
	n := New()
	tokens := n.Normalize("crash on startup")
	assert.Equal(t, strings.Join(tokens, " "), n.NormalizeJoined("crash on startup"))
}

func TestCleanupRules(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		in      string
		want    string
		notWant string
	}{
		{
			name:    "quoted replies stripped",
			rule:    StripQuotedReplies,
			in:      "my comment\n> quoted earlier text\nmore",
			notWant: "quoted earlier",
		},
		{
			name:    "hex ids collapsed",
			rule:    CollapseHex,
			in:      "crashed at 0xDEADBEEF1234",
			want:    "__HEX__",
			notWant: "DEADBEEF",
		},
		{
			name:    "library names collapsed",
			rule:    CollapseLibraryNames,
			in:      "fault in libxul.so today",
			want:    "__LIB_NAME__",
			notWant: "libxul",
		},
		{
			name:    "file references collapsed",
			rule:    CollapseFileRefs,
			in:      "see widget.cpp for details",
			want:    "__FILE_REF__",
			notWant: "widget.cpp",
		},
		{
			name:    "urls collapsed",
			rule:    CollapseURLs,
			in:      "open https://example.com/bug?id=1 now",
			want:    "__URL__",
			notWant: "example.com",
		},
		{
			name: "synonyms canonicalized",
			rule: ApplySynonyms,
			in:   "STR: open the Steps To Reproduce panel",
			want: "str",
		},
		{
			name:    "crash-stats references collapsed",
			rule:    CollapseCrashRefs,
			in:      "report bp-12ab34cd-5678 attached",
			want:    "__CRASH_REF__",
			notWant: "bp-12ab34cd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.rule(tt.in)
			if tt.want != "" {
				assert.Contains(t, out, tt.want)
			}
			if tt.notWant != "" {
				assert.NotContains(t, out, tt.notWant)
			}
		})
	}
}

func TestNormalizeWithCustomRules(t *testing.T) {
	appendMarker := func(s string) string { return s + " zzmarker" }
	n := NewWithRules([]Rule{appendMarker})
	tokens := n.Normalize("crash")
	assert.Contains(t, tokens, "zzmarker")
}
