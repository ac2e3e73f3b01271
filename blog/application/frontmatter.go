package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camdenv/website/blog/domain"
)

const frontMatterDelimiter = "---"

// FrontMatter holds the typed attributes declared at the head of a post file.
type FrontMatter struct {
	Title       string
	CreatedAt   string
	Slug        string
	Description *string
	Tags        []string
	Status      domain.PostStatus
}

// ParseFrontMatter extracts the metadata block from the head of a raw post
// file and returns the typed attributes plus the remaining body.
//
// The file must begin with a line containing only "---", followed by one
// `key: JSON-value` pair per line, followed by a closing "---" line. Required
// keys are title, createdAt, and slug; tags defaults to empty and status to
// published. Unknown keys are ignored. Any malformed line or missing required
// attribute rejects the whole file with a *domain.FrontMatterError.
func ParseFrontMatter(raw string) (*FrontMatter, string, error) {
	rest, ok := cutLine(raw)
	if !ok || strings.TrimRight(firstLine(raw), "\r") != frontMatterDelimiter {
		return nil, "", &domain.FrontMatterError{Line: 1, Reason: "missing opening delimiter"}
	}

	fields := make(map[string]json.RawMessage)
	lineNo := 1
	for {
		lineNo++
		line := firstLine(rest)
		next, ok := cutLine(rest)
		if !ok && line == rest && line != frontMatterDelimiter {
			return nil, "", &domain.FrontMatterError{Line: lineNo, Reason: "missing closing delimiter"}
		}
		rest = next

		trimmed := strings.TrimRight(line, "\r")
		if trimmed == frontMatterDelimiter {
			break
		}

		key, value, found := strings.Cut(trimmed, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			return nil, "", &domain.FrontMatterError{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected \"key: value\", got %q", trimmed),
			}
		}

		if !json.Valid([]byte(value)) {
			return nil, "", &domain.FrontMatterError{
				Line:   lineNo,
				Reason: fmt.Sprintf("value for %q is not valid JSON", key),
			}
		}
		fields[key] = json.RawMessage(value)
	}

	attrs, err := decodeAttributes(fields)
	if err != nil {
		return nil, "", err
	}

	return attrs, rest, nil
}

// decodeAttributes validates the decoded key set against the schema. All
// required attributes must be present and well-typed or the file is rejected.
func decodeAttributes(fields map[string]json.RawMessage) (*FrontMatter, error) {
	attrs := &FrontMatter{
		Tags:   []string{},
		Status: domain.StatusPublished,
	}

	var err error
	if attrs.Title, err = requiredString(fields, "title"); err != nil {
		return nil, err
	}
	if attrs.CreatedAt, err = requiredString(fields, "createdAt"); err != nil {
		return nil, err
	}
	if attrs.Slug, err = requiredString(fields, "slug"); err != nil {
		return nil, err
	}

	if raw, ok := fields["description"]; ok {
		var desc string
		if err := json.Unmarshal(raw, &desc); err != nil {
			return nil, &domain.FrontMatterError{Reason: "description must be a string"}
		}
		attrs.Description = &desc
	}

	if raw, ok := fields["tags"]; ok {
		if err := json.Unmarshal(raw, &attrs.Tags); err != nil {
			return nil, &domain.FrontMatterError{Reason: "tags must be an array of strings"}
		}
	}

	if raw, ok := fields["status"]; ok {
		var status string
		if err := json.Unmarshal(raw, &status); err != nil {
			return nil, &domain.FrontMatterError{Reason: "status must be a string"}
		}
		attrs.Status = domain.PostStatus(status)
		if !attrs.Status.Valid() {
			return nil, &domain.FrontMatterError{
				Reason: fmt.Sprintf("status must be %q or %q, got %q", domain.StatusPublished, domain.StatusUnlisted, status),
			}
		}
	}

	return attrs, nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", &domain.FrontMatterError{Reason: fmt.Sprintf("missing required attribute %q", key)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &domain.FrontMatterError{Reason: fmt.Sprintf("%s must be a string", key)}
	}
	return s, nil
}

// firstLine returns s up to (not including) the first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// cutLine returns everything after the first newline. ok is false when s has
// no newline left.
func cutLine(s string) (string, bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[i+1:], true
	}
	return "", false
}
