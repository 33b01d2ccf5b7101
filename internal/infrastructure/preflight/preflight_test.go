package preflight

import (
	"strings"
	"testing"

	"github.com/intakeworks/docflow/internal/config"
	"github.com/intakeworks/docflow/internal/core/domain"
)

func testRules() config.IntakeRules {
	return config.IntakeRules{
		MaxFilesPerBatch:  10,
		MaxFileSizeBytes:  1024,
		AllowedExtensions: []string{".pdf", ".png"},
	}
}

func TestCheckRejectsDisallowedExtension(t *testing.T) {
	checker := New(testRules())

	err := checker.Check(domain.FileUpload{Name: "notes.txt", Content: []byte("hello")})
	if err == nil {
		t.Fatalf("expected extension rejection")
	}
	if !strings.Contains(err.Error(), ".txt") {
		t.Fatalf("expected extension in error, got %v", err)
	}
}

func TestCheckExtensionCaseInsensitive(t *testing.T) {
	checker := New(testRules())

	if err := checker.Check(domain.FileUpload{Name: "scan.PNG", Content: []byte("png bytes")}); err != nil {
		t.Fatalf("expected uppercase extension accepted, got %v", err)
	}
}

func TestCheckRejectsOversizedFile(t *testing.T) {
	checker := New(testRules())

	err := checker.Check(domain.FileUpload{Name: "big.png", Content: make([]byte, 2048)})
	if err == nil {
		t.Fatalf("expected size rejection")
	}
	if !strings.Contains(err.Error(), "exceeds limit") {
		t.Fatalf("expected size limit in error, got %v", err)
	}
}

func TestCheckRejectsCorruptPDF(t *testing.T) {
	checker := New(testRules())

	err := checker.Check(domain.FileUpload{Name: "broken.pdf", Content: []byte("this is not a pdf")})
	if err == nil {
		t.Fatalf("expected corrupt pdf rejection")
	}
}

func TestCheckEmptyRulesAcceptAnyExtension(t *testing.T) {
	checker := New(config.IntakeRules{})

	if err := checker.Check(domain.FileUpload{Name: "anything.bin", Content: []byte("x")}); err != nil {
		t.Fatalf("expected no rejection without rules, got %v", err)
	}
}
