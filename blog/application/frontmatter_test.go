package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/camdenv/website/blog/domain"
)

func TestParseFrontMatter(t *testing.T) {
	desc := "A post about things"

	tests := []struct {
		name      string
		raw       string
		wantAttrs *FrontMatter
		wantBody  string
	}{
		{
			name: "all fields",
			raw: "---\n" +
				"title: \"Hello World\"\n" +
				"createdAt: \"2023-01-15\"\n" +
				"slug: \"hello-world\"\n" +
				"description: \"A post about things\"\n" +
				"tags: [\"go\",\"web\"]\n" +
				"status: \"unlisted\"\n" +
				"---\n" +
				"# Hello\n\nBody text.\n",
			wantAttrs: &FrontMatter{
				Title:       "Hello World",
				CreatedAt:   "2023-01-15",
				Slug:        "hello-world",
				Description: &desc,
				Tags:        []string{"go", "web"},
				Status:      domain.StatusUnlisted,
			},
			wantBody: "# Hello\n\nBody text.\n",
		},
		{
			name: "defaults applied",
			raw: "---\n" +
				"title: \"Minimal\"\n" +
				"createdAt: \"2022-06-01\"\n" +
				"slug: \"minimal\"\n" +
				"---\n" +
				"Body.",
			wantAttrs: &FrontMatter{
				Title:     "Minimal",
				CreatedAt: "2022-06-01",
				Slug:      "minimal",
				Tags:      []string{},
				Status:    domain.StatusPublished,
			},
			wantBody: "Body.",
		},
		{
			name: "unknown keys ignored",
			raw: "---\n" +
				"title: \"Post\"\n" +
				"createdAt: \"2022-06-01\"\n" +
				"slug: \"post\"\n" +
				"draft: true\n" +
				"weight: 42\n" +
				"---\n" +
				"Body.\n",
			wantAttrs: &FrontMatter{
				Title:     "Post",
				CreatedAt: "2022-06-01",
				Slug:      "post",
				Tags:      []string{},
				Status:    domain.StatusPublished,
			},
			wantBody: "Body.\n",
		},
		{
			name: "empty body",
			raw: "---\n" +
				"title: \"Post\"\n" +
				"createdAt: \"2022-06-01\"\n" +
				"slug: \"post\"\n" +
				"---\n",
			wantAttrs: &FrontMatter{
				Title:     "Post",
				CreatedAt: "2022-06-01",
				Slug:      "post",
				Tags:      []string{},
				Status:    domain.StatusPublished,
			},
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, body, err := ParseFrontMatter(tt.raw)
			if err != nil {
				t.Fatalf("ParseFrontMatter failed: %v", err)
			}

			if !reflect.DeepEqual(attrs, tt.wantAttrs) {
				t.Errorf("attrs = %+v, want %+v", attrs, tt.wantAttrs)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestParseFrontMatter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantLine int
	}{
		{
			name:     "missing opening delimiter",
			raw:      "title: \"Post\"\n---\nBody.\n",
			wantLine: 1,
		},
		{
			name:     "empty file",
			raw:      "",
			wantLine: 1,
		},
		{
			name:     "missing closing delimiter",
			raw:      "---\ntitle: \"Post\"\n",
			wantLine: 3,
		},
		{
			name:     "line without colon",
			raw:      "---\ntitle \"Post\"\n---\n",
			wantLine: 2,
		},
		{
			name:     "line without value",
			raw:      "---\ntitle:\n---\n",
			wantLine: 2,
		},
		{
			name:     "value is not JSON",
			raw:      "---\ntitle: \"Post\"\ntags: [unquoted]\n---\n",
			wantLine: 3,
		},
		{
			name: "missing required attribute",
			raw:  "---\ncreatedAt: \"2022-06-01\"\nslug: \"post\"\n---\nBody.\n",
		},
		{
			name: "title wrong type",
			raw:  "---\ntitle: 42\ncreatedAt: \"2022-06-01\"\nslug: \"post\"\n---\n",
		},
		{
			name: "tags wrong type",
			raw:  "---\ntitle: \"Post\"\ncreatedAt: \"2022-06-01\"\nslug: \"post\"\ntags: \"go\"\n---\n",
		},
		{
			name: "unknown status",
			raw:  "---\ntitle: \"Post\"\ncreatedAt: \"2022-06-01\"\nslug: \"post\"\nstatus: \"draft\"\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFrontMatter(tt.raw)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			var fmErr *domain.FrontMatterError
			if !errors.As(err, &fmErr) {
				t.Fatalf("Expected *domain.FrontMatterError, got %T", err)
			}
			if tt.wantLine != 0 && fmErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", fmErr.Line, tt.wantLine)
			}
		})
	}
}

// serializeFrontMatter writes attrs back into the on-disk format, for the
// round-trip property below.
func serializeFrontMatter(t *testing.T, attrs *FrontMatter) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("---\n")

	writeField := func(key string, value any) {
		encoded, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("Failed to encode %s: %v", key, err)
		}
		fmt.Fprintf(&sb, "%s: %s\n", key, encoded)
	}

	writeField("title", attrs.Title)
	writeField("createdAt", attrs.CreatedAt)
	writeField("slug", attrs.Slug)
	if attrs.Description != nil {
		writeField("description", *attrs.Description)
	}
	writeField("tags", attrs.Tags)
	writeField("status", attrs.Status)

	sb.WriteString("---\n")
	return sb.String()
}

func TestParseFrontMatter_RoundTrip(t *testing.T) {
	desc := "Round and round"
	attrSets := []*FrontMatter{
		{
			Title:     "Plain",
			CreatedAt: "2021-03-09",
			Slug:      "plain",
			Tags:      []string{},
			Status:    domain.StatusPublished,
		},
		{
			Title:       "Everything: colons, \"quotes\"",
			CreatedAt:   "2024-12-31",
			Slug:        "everything",
			Description: &desc,
			Tags:        []string{"a", "b", "c"},
			Status:      domain.StatusUnlisted,
		},
	}
	bodies := []string{"", "Body.\n", "# Title\n\n---\n\nrules and `code`\n"}

	for _, attrs := range attrSets {
		for _, body := range bodies {
			raw := serializeFrontMatter(t, attrs) + body

			gotAttrs, gotBody, err := ParseFrontMatter(raw)
			if err != nil {
				t.Fatalf("ParseFrontMatter(%q) failed: %v", raw, err)
			}
			if !reflect.DeepEqual(gotAttrs, attrs) {
				t.Errorf("attrs = %+v, want %+v", gotAttrs, attrs)
			}
			if gotBody != body {
				t.Errorf("body = %q, want %q", gotBody, body)
			}
		}
	}
}
