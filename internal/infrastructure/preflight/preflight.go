package preflight

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/intakeworks/docflow/internal/config"
	"github.com/intakeworks/docflow/internal/core/domain"
)

// Checker rejects obviously unusable uploads before they cost a round trip
// to the processing service: wrong extension, oversized content, or a PDF
// the reader cannot even open. It is deliberately shallow; real extraction
// quality is the backend's job.
type Checker struct {
	rules config.IntakeRules
}

func New(rules config.IntakeRules) *Checker {
	return &Checker{rules: rules}
}

func (c *Checker) Check(file domain.FileUpload) error {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if len(c.rules.AllowedExtensions) > 0 && !contains(c.rules.AllowedExtensions, ext) {
		return fmt.Errorf("file %q: extension %q is not accepted", file.Name, ext)
	}
	if c.rules.MaxFileSizeBytes > 0 && int64(len(file.Content)) > c.rules.MaxFileSizeBytes {
		return fmt.Errorf("file %q: %d bytes exceeds limit of %d", file.Name, len(file.Content), c.rules.MaxFileSizeBytes)
	}
	if ext == ".pdf" {
		if err := checkPDF(file); err != nil {
			return fmt.Errorf("file %q: %w", file.Name, err)
		}
	}
	return nil
}

func checkPDF(file domain.FileUpload) error {
	reader, err := pdf.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return fmt.Errorf("unreadable pdf: %w", err)
	}
	if reader.NumPage() == 0 {
		return fmt.Errorf("pdf has no pages")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if strings.EqualFold(value, v) {
			return true
		}
	}
	return false
}
