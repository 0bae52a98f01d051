package resume

import (
	"reflect"
	"testing"
)

func TestExtractAllFields(t *testing.T) {
	text := "Ava Martinez\nFull-Stack Developer\nava.martinez@example.com | 415-555-0134\nSan Francisco, CA\n\nExperience..."
	f := Extract(text)

	if f.Name != "Ava Martinez" {
		t.Errorf("name = %q, want %q", f.Name, "Ava Martinez")
	}
	if f.Email != "ava.martinez@example.com" {
		t.Errorf("email = %q", f.Email)
	}
	if f.Phone != "415-555-0134" {
		t.Errorf("phone = %q", f.Phone)
	}
	if missing := f.Missing(); missing != nil {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestExtractReportsMissingFields(t *testing.T) {
	f := Extract("SOFTWARE ENGINEER RESUME\nexperience with react and node")
	want := []string{"name", "email", "phone"}
	if got := f.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("missing = %v, want %v", got, want)
	}
}

func TestExtractNameOnlyInHeader(t *testing.T) {
	// A capitalized line past the header window must not be taken as the
	// name.
	text := "RESUME\n\n\n\n\n\nJane Doe\njane@example.com"
	f := Extract(text)
	if f.Name != "" {
		t.Errorf("name = %q, want empty (outside header window)", f.Name)
	}
	if f.Email != "jane@example.com" {
		t.Errorf("email = %q", f.Email)
	}
}

func TestExtractPhoneFormats(t *testing.T) {
	for _, phone := range []string{"415-555-0134", "415.555.0134", "4155550134"} {
		f := Extract("contact: " + phone)
		if f.Phone == "" {
			t.Errorf("phone format %q not recognized", phone)
		}
	}
}
