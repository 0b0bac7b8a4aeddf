package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "redirsync/pkg/errors"
	"redirsync/pkg/redirect"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "acct", "ws", 5*time.Second, nil, nil)
}

func TestExportPage(t *testing.T) {
	var gotCursor string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/redirects", r.URL.Path)
		assert.Equal(t, "acct", r.Header.Get("X-Account"))
		assert.Equal(t, "ws", r.Header.Get("X-Workspace"))
		gotCursor = r.URL.Query().Get("cursor")
		json.NewEncoder(w).Encode(Page{
			Records:    []redirect.Record{{From: "/a", To: "/b", Type: redirect.TypePermanent}},
			NextCursor: "tok-2",
		})
	}))

	page, err := client.ExportPage(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", gotCursor)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "/a", page.Records[0].From)
	assert.Equal(t, "tok-2", page.NextCursor)
}

func TestExportPageFirstPageOmitsCursor(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery, "first page must carry no cursor")
		json.NewEncoder(w).Encode(Page{})
	}))

	_, err := client.ExportPage(context.Background(), "")
	require.NoError(t, err)
}

func TestImportBatch(t *testing.T) {
	var got importRequest
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/redirects/batch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(batchResponse{OK: true})
	}))

	err := client.ImportBatch(context.Background(), []redirect.Record{{From: "/a", To: "/b"}})
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "/a", got.Records[0].From)
}

func TestDeleteBatch(t *testing.T) {
	var got deleteRequest
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/redirects/batch_delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(batchResponse{OK: true})
	}))

	err := client.DeleteBatch(context.Background(), []string{"/a", "/b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, got.Keys)
}

func TestListKeysPaginates(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("cursor") {
		case "":
			json.NewEncoder(w).Encode(keysPage{Keys: []string{"/a", "/b"}, NextCursor: "more"})
		case "more":
			json.NewEncoder(w).Encode(keysPage{Keys: []string{"/c"}})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))

	keys, err := client.ListKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"/a", "/b", "/c"}, keys)
}

func TestDoClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		header   http.Header
		wantType errs.ErrorType
	}{
		{"rate limited", 429, http.Header{"Retry-After": {"5"}}, errs.ErrorTypeRateLimit},
		{"server error", 500, nil, errs.ErrorTypeServer},
		{"bad gateway", 502, nil, errs.ErrorTypeServer},
		{"not found", 404, nil, errs.ErrorTypeClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for key, values := range tt.header {
					w.Header()[key] = values
				}
				w.WriteHeader(tt.status)
			}))

			_, err := client.ExportPage(context.Background(), "")
			require.Error(t, err)

			var classified *errs.Error
			require.ErrorAs(t, err, &classified)
			assert.Equal(t, tt.wantType, classified.Type)
			assert.Equal(t, tt.status, classified.Code)
			if tt.wantType == errs.ErrorTypeRateLimit {
				assert.Equal(t, 5*time.Second, classified.RetryAfter)
			}
		})
	}
}

func TestDoClassifiesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // refuse all connections

	client := NewClient(server.URL, "acct", "ws", time.Second, nil, nil)
	_, err := client.ExportPage(context.Background(), "")
	require.Error(t, err)

	var classified *errs.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, errs.ErrorTypeNetwork, classified.Type)
}

func TestDoCancellationPassesThrough(t *testing.T) {
	block := make(chan struct{})
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.ExportPage(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
