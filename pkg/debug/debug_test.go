package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "streaming", map[string]bool{"streaming": true}},
		{"multiple", "streaming,negotiate", map[string]bool{"streaming": true, "negotiate": true}},
		{"with spaces", " streaming , engine ", map[string]bool{"streaming": true, "engine": true}},
		{"uppercase normalized", "STREAMING,Engine", map[string]bool{"streaming": true, "engine": true}},
		{"empty segments", "streaming,,engine", map[string]bool{"streaming": true, "engine": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("len(got) = %d, want %d", len(got), len(tt.want))
			}
			for k := range tt.want {
				if !got[k] {
					t.Errorf("category %q missing", k)
				}
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("streaming")
	if !Enabled("streaming") {
		t.Error("streaming should be enabled")
	}
	if Enabled("negotiate") {
		t.Error("negotiate should not be enabled")
	}

	categories = parseCategories("all")
	if !Enabled("negotiate") {
		t.Error("all should enable every category")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetupEnvOverridesConfig(t *testing.T) {
	origCats := categories
	origLogger := slog.Default()
	defer func() {
		categories = origCats
		slog.SetDefault(origLogger)
	}()

	t.Setenv("ONAIR_DEBUG", "negotiate")
	t.Setenv("ONAIR_LOG_LEVEL", "DEBUG")

	var buf bytes.Buffer
	Setup(&buf, "streaming", "ERROR")

	if Enabled("streaming") {
		t.Error("config categories should be overridden by ONAIR_DEBUG")
	}
	Log("negotiate", "fallback", "version", "v1beta")
	if !strings.Contains(buf.String(), "debug=negotiate") || !strings.Contains(buf.String(), "version=v1beta") {
		t.Errorf("log output = %q, want negotiate record", buf.String())
	}
}

func TestCategoriesSorted(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("streaming,engine,config")
	got := strings.Join(Categories(), ",")
	if got != "config,engine,streaming" {
		t.Errorf("Categories() = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello..."},
		// "こ" is three bytes; a cut at byte 4 must back off to byte 3.
		{"utf8 boundary", "こんにちは", 4, "こ..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
