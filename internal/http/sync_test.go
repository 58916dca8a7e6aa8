package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_BookStateLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.addBook(t, "B1", 'a')

	resp := ts.post(t, "/check", `{"table":"books","fileId":"B1"}`)
	assert.Equal(t, map[string]any{"ok": true, "exists": false, "deleted": false}, resp, "updatedAt omitted for unseen keys")

	resp = ts.post(t, "/update", `{"table":"books","row":{"fileId":"B1","updatedAt":50,"progress":{"pct":0.4}}}`)
	assert.Equal(t, true, resp["ok"])
	assert.EqualValues(t, 100, resp["updatedAt"])

	resp = ts.post(t, "/check", `{"table":"book_data","fileId":"B1","localUpdatedAt":7}`)
	assert.Equal(t, true, resp["exists"])
	assert.EqualValues(t, 100, resp["updatedAt"])

	resp = ts.post(t, "/update", `{"table":"books","row":{"fileId":"B1","updatedAt":60,"progress":"x"}}`)
	assert.Equal(t, map[string]any{"ok": false, "error": "conflict", "serverUpdatedAt": float64(100)}, resp)

	resp = ts.post(t, "/update", `{"table":"books","force":"1","row":{"fileId":"B1","updatedAt":60,"progress":"x"}}`)
	assert.Equal(t, true, resp["ok"])
	assert.EqualValues(t, 200, resp["updatedAt"])

	resp = ts.post(t, "/delete", `{"table":"books","fileId":"B1"}`)
	assert.Equal(t, true, resp["ok"])
	assert.EqualValues(t, 300, resp["deletedAt"])

	resp = ts.post(t, "/delete", `{"table":"books","fileId":"B1"}`)
	assert.EqualValues(t, 300, resp["deletedAt"], "repeated delete keeps the original time")

	resp = ts.post(t, "/check", `{"table":"books","fileId":"B1"}`)
	assert.Equal(t, false, resp["exists"])
	assert.Equal(t, true, resp["deleted"])
	assert.EqualValues(t, 300, resp["updatedAt"])

	resp = ts.post(t, "/get", `{"table":"books","fileId":"B1"}`)
	rows := resp["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "x", row["progress"])
	assert.EqualValues(t, 300, row["deletedAt"])
}

func TestSync_ItemRows(t *testing.T) {
	ts := newTestServer(t)
	ts.addBook(t, "B1", 'a')

	resp := ts.post(t, "/update", `{"table":"bookmarks","row":{"fileId":"B1","id":"7","updatedAt":1,"locator":{"page":3,"cfi":"/4"},"label":12}}`)
	require.Equal(t, true, resp["ok"], resp)

	resp = ts.post(t, "/update", `{"table":"highlight","force":true,"row":{"fileId":"B1","id":8,"updatedAt":1,"selection":"abc","colour":"yellow"}}`)
	require.Equal(t, true, resp["ok"], resp)

	resp = ts.post(t, "/update", `{"table":"notes","row":{"fileId":"B1","id":1,"updatedAt":1,"locator":"p1","content":"remember"}}`)
	require.Equal(t, true, resp["ok"], resp)

	resp = ts.post(t, "/get", `{"table":"bookmark","fileId":"B1"}`)
	rows := resp["rows"].([]any)
	require.Len(t, rows, 1)
	bm := rows[0].(map[string]any)
	assert.EqualValues(t, 7, bm["id"])
	assert.Equal(t, `{"cfi":"/4","page":3}`, bm["locator"], "structured payloads are stored as compact JSON")
	assert.Equal(t, "12", bm["label"])

	resp = ts.post(t, "/check", `{"table":"note","fileId":"B1","id":"1"}`)
	assert.Equal(t, true, resp["exists"])

	resp = ts.post(t, "/delete", `{"table":"highlight","fileId":"B1","id":8}`)
	assert.Equal(t, true, resp["ok"])

	resp = ts.post(t, "/delete", `{"table":"highlight","fileId":"B1","id":9}`)
	assert.Equal(t, map[string]any{"ok": false, "error": "not_found"}, resp)

	resp = ts.post(t, "/get", `{"table":"highlights","fileId":"B2"}`)
	assert.Equal(t, []any{}, resp["rows"], "empty results are an empty array")
}

func TestSync_DeletingBookStateCascades(t *testing.T) {
	ts := newTestServer(t)
	ts.addBook(t, "B1", 'a')

	ts.post(t, "/update", `{"table":"books","row":{"fileId":"B1","updatedAt":1}}`)
	ts.post(t, "/update", `{"table":"bookmark","row":{"fileId":"B1","id":1,"updatedAt":1}}`)
	ts.post(t, "/update", `{"table":"note","row":{"fileId":"B1","id":1,"updatedAt":1}}`)

	resp := ts.post(t, "/delete", `{"table":"books","fileId":"B1"}`)
	deletedAt := resp["deletedAt"]

	resp = ts.post(t, "/check", `{"table":"bookmark","fileId":"B1","id":1}`)
	assert.Equal(t, true, resp["deleted"])
	assert.Equal(t, deletedAt, resp["updatedAt"])

	resp = ts.post(t, "/check", `{"table":"note","fileId":"B1","id":1}`)
	assert.Equal(t, true, resp["exists"], "notes survive book-state deletion")
}

func TestSync_GetSincePages(t *testing.T) {
	ts := newTestServer(t)
	ts.addBook(t, "B1", 'a')
	for _, id := range []string{"1", "2", "3"} {
		resp := ts.post(t, "/update", `{"table":"highlight","row":{"fileId":"B1","id":`+id+`,"updatedAt":1}}`)
		require.Equal(t, true, resp["ok"])
	}

	resp := ts.post(t, "/getSince", `{"table":"highlights","since":0,"limit":2}`)
	rows := resp["rows"].([]any)
	assert.Len(t, rows, 2)
	assert.EqualValues(t, 300, resp["nextSince"])

	resp = ts.post(t, "/getSince", `{"table":"highlight","since":300}`)
	rows = resp["rows"].([]any)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0].(map[string]any)["id"])
	assert.EqualValues(t, 300, resp["nextSince"])

	resp = ts.post(t, "/getSince", `{"table":"highlight","since":301,"limit":0}`)
	assert.Equal(t, []any{}, resp["rows"])
	assert.EqualValues(t, 301, resp["nextSince"], "an empty page keeps the cursor")

	resp = ts.post(t, "/getSince", `{"table":"highlight","since":0,"limit":99999}`)
	assert.Len(t, resp["rows"].([]any), 3, "oversized limits are clamped")
}

func TestSync_RequestValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.addBook(t, "B1", 'a')

	tests := []struct {
		name   string
		path   string
		body   string
		reason string
	}{
		{"unparseable body", "/check", `{"table":`, "parsing failed"},
		{"missing table", "/check", `{"fileId":"B1"}`, "no tablename"},
		{"unknown table", "/check", `{"table":"shelves","fileId":"B1"}`, "unknown table"},
		{"bad localUpdatedAt", "/check", `{"table":"books","fileId":"B1","localUpdatedAt":"soon"}`, "bad localUpdatedAt"},
		{"missing fileId", "/check", `{"table":"books"}`, "no fileId"},
		{"missing id", "/check", `{"table":"bookmark","fileId":"B1"}`, "no id"},
		{"non-numeric id", "/delete", `{"table":"bookmark","fileId":"B1","id":"7a"}`, "bad id"},
		{"negative id string", "/delete", `{"table":"bookmark","fileId":"B1","id":"-7"}`, "bad id"},
		{"missing row", "/update", `{"table":"books"}`, "no row data"},
		{"bad force", "/update", `{"table":"books","force":"yes","row":{"fileId":"B1","updatedAt":1}}`, "invalid value for force tag"},
		{"missing updatedAt", "/update", `{"table":"books","row":{"fileId":"B1"}}`, "invalid updatedAt value"},
		{"fractional updatedAt", "/update", `{"table":"books","row":{"fileId":"B1","updatedAt":1.5}}`, "invalid updatedAt value"},
		{"unknown book", "/update", `{"table":"books","row":{"fileId":"nope","updatedAt":1}}`, "unknown fileId"},
		{"get without fileId", "/get", `{"table":"books"}`, "no fileId"},
		{"getSince without since", "/getSince", `{"table":"books"}`, `no "since" value`},
		{"getSince bad limit", "/getSince", `{"table":"books","since":0,"limit":"ten"}`, "invalid limit"},
		{"getSince negative since", "/getSince", `{"table":"books","since":-1}`, "since must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, tt.path, tt.body)
			assert.Equal(t, map[string]any{"ok": false, "error": "invalid_request", "reason": tt.reason}, resp)
		})
	}
}
