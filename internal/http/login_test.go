package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) login(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:5000"
	w := ts.do(req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.login(t, `{"username":"alice","password":"secret","version":"`+testCompat+`","device":"kobo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
	token := resp["token"].(string)
	assert.Len(t, token, 64)
	assert.Greater(t, resp["expiresAt"].(float64), float64(0))

	ts.token = token
	check := ts.post(t, "/check", `{"table":"books","fileId":"B1"}`)
	assert.Equal(t, true, check["ok"])
}

func TestLogin_Failures(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		want   map[string]any
	}{
		{"malformed json", `{"username":`, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"}},
		{"missing version", `{"username":"alice","password":"secret"}`, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing_fields"}},
		{"wrong version", `{"username":"alice","password":"secret","version":"0.9"}`, http.StatusUnauthorized,
			map[string]any{"ok": false, "error": "wrong_version", "expected": testCompat}},
		{"wrong password", `{"username":"alice","password":"nope","version":"` + testCompat + `"}`, http.StatusUnauthorized,
			map[string]any{"ok": false, "error": "invalid_credentials"}},
		{"unknown user", `{"username":"bob","password":"secret","version":"` + testCompat + `"}`, http.StatusUnauthorized,
			map[string]any{"ok": false, "error": "invalid_credentials"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := ts.login(t, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	bad := `{"username":"alice","password":"nope","version":"` + testCompat + `"}`

	for i := 0; i < 3; i++ {
		w, _ := ts.login(t, bad)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w, resp := ts.login(t, `{"username":"alice","password":"secret","version":"`+testCompat+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "too_many_attempts", resp["error"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
