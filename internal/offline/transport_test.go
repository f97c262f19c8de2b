package offline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPTransportReplaysVerbatim(t *testing.T) {
	var gotMethod, gotPath, gotType, gotReqID, gotCustom string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-Id")
		gotCustom = r.Header.Get("X-Device")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "new-id"})
	}))
	t.Cleanup(srv.Close)

	tr := NewHTTPTransport(srv.URL, 0)
	req, err := NewRequest(http.MethodPatch, "/api/v1/findings/f-1", map[string]any{"notes": "x"})
	require.NoError(t, err)
	req.Headers = map[string]string{"X-Device": "tablet-3"}

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, tr.Do(context.Background(), req, &out))
	require.Equal(t, "new-id", out.ID)
	require.Equal(t, http.MethodPatch, gotMethod)
	require.Equal(t, "/api/v1/findings/f-1", gotPath)
	require.Equal(t, "application/json", gotType)
	require.Equal(t, req.ID, gotReqID)
	require.Equal(t, "tablet-3", gotCustom)
	require.JSONEq(t, `{"notes":"x"}`, string(gotBody))
}

func TestHTTPTransportClassifiesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	tr := NewHTTPTransport(srv.URL, 0)

	err := tr.Send(context.Background(), Request{Method: http.MethodPost, URL: "/x"})
	var status *StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusBadGateway, status.StatusCode)

	srv.Close()
	err = tr.Send(context.Background(), Request{Method: http.MethodPost, URL: "/x"})
	require.ErrorIs(t, err, ErrTransient)
}
