package index

import (
	"strings"

	"github.com/google/uuid"
)

// Keys derives the store keys of one namespace:
//
//	<ns>:word:<code>    posting set, document id -> frequency
//	<ns>:object:<id>    document code set, code -> frequency
//	<ns>:tmp:<uuid>     ephemeral query result set
type Keys struct {
	namespace string
}

func NewKeys(namespace string) Keys {
	return Keys{namespace: namespace}
}

func (k Keys) Namespace() string {
	return k.namespace
}

// Posting returns the posting set key of a phonetic code.
func (k Keys) Posting(code string) string {
	return k.namespace + ":word:" + code
}

// Postings maps codes to posting set keys, keeping their order.
func (k Keys) Postings(codes []string) []string {
	keys := make([]string, len(codes))
	for i, c := range codes {
		keys[i] = k.Posting(c)
	}
	return keys
}

// Document returns the reverse-index key of a document.
func (k Keys) Document(id string) string {
	return k.namespace + ":object:" + id
}

// Ephemeral returns a fresh result key unique to one query call.
func (k Keys) Ephemeral() string {
	return k.namespace + ":tmp:" + uuid.NewString()
}

// IsEphemeral reports whether key was produced by Ephemeral for this
// namespace.
func (k Keys) IsEphemeral(key string) bool {
	return strings.HasPrefix(key, k.namespace+":tmp:")
}
