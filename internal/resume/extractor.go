// Package resume extracts candidate identity fields from resume text.
// Document parsing (PDF/DOCX to text) is an external concern; this package
// operates on plain text only.
package resume

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	// A name line is a short sequence of capitalized words near the top of
	// the document.
	nameRe = regexp.MustCompile(`^[A-Z][a-z]+(?:\s[A-Z][a-z]+)*$`)
)

// headerLines limits how far down the document the name heuristic looks.
const headerLines = 5

// Fields holds the identity attributes extracted from a resume. Empty
// values mean the field could not be found and must be collected from the
// candidate before the interview starts.
type Fields struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Missing lists the required fields that extraction did not find.
func (f Fields) Missing() []string {
	var missing []string
	if f.Name == "" {
		missing = append(missing, "name")
	}
	if f.Email == "" {
		missing = append(missing, "email")
	}
	if f.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// Extract scans resume text for name, email and phone.
func Extract(text string) Fields {
	var f Fields

	f.Email = emailRe.FindString(text)
	f.Phone = phoneRe.FindString(text)

	lines := strings.Split(text, "\n")
	if len(lines) > headerLines {
		lines = lines[:headerLines]
	}
	for _, line := range lines {
		if candidate := strings.TrimSpace(line); nameRe.MatchString(candidate) {
			f.Name = candidate
			break
		}
	}
	return f
}
