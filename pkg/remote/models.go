package remote

import "redirsync/pkg/redirect"

// Page is one slice of the remote redirect set, plus the cursor for
// the next fetch. An empty NextCursor means the listing is exhausted.
type Page struct {
	Records    []redirect.Record `json:"records"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// keysPage is the wire shape of one key-listing page
type keysPage struct {
	Keys       []string `json:"keys"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// importRequest is the body of a batch import call
type importRequest struct {
	Records []redirect.Record `json:"records"`
}

// deleteRequest is the body of a batch delete call
type deleteRequest struct {
	Keys []string `json:"keys"`
}

// batchResponse acknowledges a batch mutation
type batchResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
