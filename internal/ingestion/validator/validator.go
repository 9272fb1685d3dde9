// Package validator checks ingestion requests and returns per-field error
// details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
)

const (
	maxNamespaceLength = 128
	maxIDLength        = 512
	maxTextLength      = 1048576
	maxBatchSize       = 1000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func ValidateNamespace(namespace string) error {
	errs := make(map[string]string)
	checkNamespace(errs, namespace)
	return result(errs)
}

// ValidateDocument checks one document. requireID is set for PUT and
// DELETE, where the id comes from the path.
func ValidateDocument(namespace string, doc *ingestion.DocumentRequest, requireID bool) error {
	errs := make(map[string]string)
	checkNamespace(errs, namespace)
	checkDocument(errs, "", doc, requireID)
	return result(errs)
}

// ValidateBatch checks every document of a POST body.
func ValidateBatch(namespace string, req *ingestion.BatchRequest) error {
	errs := make(map[string]string)
	checkNamespace(errs, namespace)
	switch {
	case len(req.Documents) == 0:
		errs["documents"] = "at least one document is required"
	case len(req.Documents) > maxBatchSize:
		errs["documents"] = fmt.Sprintf("at most %d documents per request", maxBatchSize)
	default:
		seen := make(map[string]int, len(req.Documents))
		for i := range req.Documents {
			doc := &req.Documents[i]
			prefix := fmt.Sprintf("documents[%d].", i)
			checkDocument(errs, prefix, doc, false)
			if doc.ID == "" {
				continue
			}
			if first, dup := seen[doc.ID]; dup {
				errs[prefix+"id"] = fmt.Sprintf("duplicates documents[%d].id", first)
			} else {
				seen[doc.ID] = i
			}
		}
	}
	return result(errs)
}

func checkNamespace(errs map[string]string, namespace string) {
	switch {
	case strings.TrimSpace(namespace) == "":
		errs["namespace"] = "namespace is required"
	case len(namespace) > maxNamespaceLength:
		errs["namespace"] = fmt.Sprintf("namespace must be at most %d characters", maxNamespaceLength)
	}
}

func checkDocument(errs map[string]string, prefix string, doc *ingestion.DocumentRequest, requireID bool) {
	id := doc.ID
	switch {
	case requireID && strings.TrimSpace(id) == "":
		errs[prefix+"id"] = "id is required"
	case id != "" && strings.TrimSpace(id) == "":
		errs[prefix+"id"] = "id must not be blank"
	case len(id) > maxIDLength:
		errs[prefix+"id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
	}
	if len(doc.Text) > maxTextLength {
		errs[prefix+"text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	}
}

func result(errs map[string]string) error {
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
