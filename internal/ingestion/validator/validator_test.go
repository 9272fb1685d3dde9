package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func TestValidateBatch(t *testing.T) {
	ok := &ingestion.BatchRequest{Documents: []ingestion.DocumentRequest{
		{ID: "7", Text: "simple words"},
		{Text: "no id, one will be generated"},
		{ID: "8", Text: ""},
	}}
	require.NoError(t, ValidateBatch("reds", ok))

	bad := &ingestion.BatchRequest{Documents: []ingestion.DocumentRequest{
		{ID: "7", Text: "a"},
		{ID: "7", Text: "b"},
		{ID: "   ", Text: "c"},
		{ID: "9", Text: strings.Repeat("x", maxTextLength+1)},
	}}
	f := fields(t, ValidateBatch("", bad))
	assert.Contains(t, f, "namespace")
	assert.Equal(t, "duplicates documents[0].id", f["documents[1].id"])
	assert.Contains(t, f, "documents[2].id")
	assert.Contains(t, f, "documents[3].text")
	assert.NotContains(t, f, "documents[0].id")

	f = fields(t, ValidateBatch("reds", &ingestion.BatchRequest{}))
	assert.Contains(t, f, "documents")
}

func TestValidateDocumentRequiresID(t *testing.T) {
	f := fields(t, ValidateDocument("reds", &ingestion.DocumentRequest{Text: "x"}, true))
	assert.Equal(t, "id is required", f["id"])

	require.NoError(t, ValidateDocument("reds", &ingestion.DocumentRequest{ID: "1"}, true))
	fields(t, ValidateDocument("reds", &ingestion.DocumentRequest{ID: strings.Repeat("i", maxIDLength+1)}, true))
}

func TestValidateNamespace(t *testing.T) {
	require.NoError(t, ValidateNamespace("reds"))
	fields(t, ValidateNamespace(strings.Repeat("n", maxNamespaceLength+1)))
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "a:one; b:two", err.Error())
}
