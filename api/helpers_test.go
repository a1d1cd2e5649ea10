package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobboard/api"
)

// newRequest builds a request with an optional JSON body and, when userID is
// positive, the authenticated-user context the JWT middleware would have set.
func newRequest(t *testing.T, method, path string, body any, userID int64) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if userID > 0 {
		req = req.WithContext(context.WithValue(req.Context(), api.CtxUserID, userID))
	}
	return req
}

// withVars attaches mux path variables so handlers using mux.Vars see them
// without going through a router.
func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal body %s: %v", string(data), err)
	}
}
