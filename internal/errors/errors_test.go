package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "template error",
			code:    "E101",
			wantMsg: "Invalid template",
			wantCat: CategoryTemplate,
		},
		{
			name:    "compute error",
			code:    "E201",
			wantMsg: "Node recompute failed",
			wantCat: CategoryCompute,
		},
		{
			name:    "sync error",
			code:    "E301",
			wantMsg: "Output tree structure mismatch",
			wantCat: CategorySync,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("E103").WithDetail("expected a tag name").Wrap(cause)

	want := "E103: Invalid template argument (expected a tag name): boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should see the wrapped cause")
	}
}

func TestHasCodeAndFromError(t *testing.T) {
	inner := New("E102")
	wrapped := New("E201").Wrap(inner)

	if !HasCode(wrapped, "E201") || !HasCode(wrapped, "E102") {
		t.Error("HasCode should match the error and what it wraps")
	}
	if HasCode(wrapped, "E301") {
		t.Error("HasCode matched an unrelated code")
	}

	if FromError(nil, "E201") != nil {
		t.Error("FromError(nil) should be nil")
	}
	if got := FromError(inner, "E201"); got != inner {
		t.Error("FromError should pass *Error through unchanged")
	}
	plain := stderrors.New("plain")
	if got := FromError(plain, "E202"); got.Code != "E202" || got.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	dir := t.TempDir()
	file := filepath.Join(dir, "page.yaml")
	content := "template:\n  element: div\n  bogus: 1\n  children: []\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E151").
		WithLocation(file, 3, 3).
		WithSuggestion("Remove the unknown key").
		Wrap(stderrors.New("bogus"))

	out := err.Format()
	for _, want := range []string{
		"ERROR E151: Unknown document entry",
		file + ":3:3",
		"→    3 │   bogus: 1",
		"Caused by: bogus",
		"Hint: Remove the unknown key",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != file+":3:3: E151: Unknown document entry" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestWithLocation_FileStart(t *testing.T) {
	file := filepath.Join(t.TempDir(), "page.yaml")
	if err := os.WriteFile(file, []byte("a\nb\nc\nd\ne\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E150").WithLocation(file, 1, 0)
	want := []SourceLine{{1, "a"}, {2, "b"}, {3, "c"}}
	if diff := cmp.Diff(want, err.Source); diff != "" {
		t.Errorf("Source mismatch (-want +got):\n%s", diff)
	}

	if missing := New("E150").WithLocation(filepath.Join(t.TempDir(), "none.yaml"), 2, 0); missing.Source != nil {
		t.Errorf("Source for a missing file = %v", missing.Source)
	}
}

func TestWrap(t *testing.T) {
	got := wrap("the quick brown fox jumps over the lazy dog", 15)
	want := []string{"the quick brown", "fox jumps over", "the lazy dog"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrap() mismatch (-want +got):\n%s", diff)
	}
	if got := wrap("", 10); got != nil {
		t.Errorf("wrap(\"\") = %v", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E160").WithDetail("bucket missing").Wrap(stderrors.New("403"))

	var decoded map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &decoded); e != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", e)
	}
	if decoded["code"] != "E160" || decoded["category"] != "publish" || decoded["cause"] != "403" {
		t.Errorf("unexpected JSON: %v", decoded)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, New("E141"))
	if !strings.Contains(buf.String(), "E141: Configuration not found") {
		t.Errorf("PrintError() = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("PrintError(plain) = %q", buf.String())
	}
}
