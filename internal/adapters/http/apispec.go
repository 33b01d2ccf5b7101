package httpadapter

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPISpecYAML []byte

var (
	specOnce sync.Once
	specJSON []byte
	specErr  error
)

// loadAPISpec parses and validates the embedded contract once, then serves
// the JSON form. A broken embedded document surfaces on first request rather
// than at startup.
func loadAPISpec() ([]byte, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openAPISpecYAML)
		if err != nil {
			specErr = fmt.Errorf("parse openapi document: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			specErr = fmt.Errorf("validate openapi document: %w", err)
			return
		}
		specJSON, specErr = doc.MarshalJSON()
	})
	return specJSON, specErr
}

func (rt *Router) openAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload, err := loadAPISpec()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
