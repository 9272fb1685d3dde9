// Package ingestion defines the request/response types, document statuses
// and the Kafka event schema of the asynchronous indexing pipeline.
package ingestion

import "time"

// Op is the change a DocumentEvent asks the indexer to apply.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Status tracks a document through the pipeline.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusRemoving Status = "REMOVING"
	StatusIndexed  Status = "INDEXED"
	StatusRemoved  Status = "REMOVED"
	StatusFailed   Status = "FAILED"
)

// DocumentRequest is one document in an ingestion request. ID is optional
// on POST and generated when empty.
type DocumentRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchRequest is the JSON body of POST .../documents.
type BatchRequest struct {
	Documents []DocumentRequest `json:"documents"`
}

// TextRequest is the JSON body of PUT .../documents/{id}.
type TextRequest struct {
	Text string `json:"text"`
}

// IngestResponse is returned to the caller after a change is accepted.
type IngestResponse struct {
	Namespace  string `json:"namespace"`
	DocumentID string `json:"document_id"`
	Status     Status `json:"status"`
}

// DocumentEvent is the Kafka message payload consumed by the indexer.
type DocumentEvent struct {
	Op          Op        `json:"op"`
	Namespace   string    `json:"namespace"`
	DocumentID  string    `json:"document_id"`
	Text        string    `json:"text,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Key partitions events so changes to one document stay ordered.
func (e DocumentEvent) Key() string {
	return e.Namespace + "/" + e.DocumentID
}

// Record is a document's row in the status registry.
type Record struct {
	Namespace  string     `json:"namespace"`
	DocumentID string     `json:"document_id"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
	IndexedAt  *time.Time `json:"indexed_at,omitempty"`
}
