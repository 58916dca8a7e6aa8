package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// --- Response Envelope ---

// respondOK sends {"ok":true} merged with fields.
func respondOK(c *gin.Context, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondFail sends {"ok":false,"error":code} with an optional reason.
func respondFail(c *gin.Context, status int, code, reason string) {
	body := gin.H{"ok": false, "error": code}
	if reason != "" {
		body["reason"] = reason
	}
	c.JSON(status, body)
}

// respondInvalid reports a malformed request in-band.
func respondInvalid(c *gin.Context, reason string) {
	respondFail(c, http.StatusOK, codeInvalidRequest, reason)
}

// --- Body Parsing ---

// readObject decodes the request body as a JSON object. Numbers are kept as
// json.Number so integers survive without float rounding.
func readObject(c *gin.Context) (map[string]any, bool) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		respondInvalid(c, "parsing failed")
		return nil, false
	}
	return body, true
}

// int64Value accepts a JSON integer. Floats and strings are rejected.
func int64Value(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}

// itemIDValue accepts an item id as a JSON integer or a string of digits.
func itemIDValue(v any) (int64, bool) {
	if i, ok := int64Value(v); ok {
		return i, true
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// flexibleBool accepts true/false or the strings "true", "false", "1", "0".
func flexibleBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch b {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

// payloadValue stores strings verbatim and any other JSON value in compact
// form, so structured locators round-trip through a text column.
func payloadValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// textValue coerces scalars to their text form.
func textValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	}
	return payloadValue(v)
}

// --- Record Parsing ---

// tableKind reads the "table" field.
func tableKind(body map[string]any) (entities.Kind, error) {
	table, _ := body["table"].(string)
	if table == "" {
		return "", errs.Invalid("no tablename")
	}
	kind, ok := entities.ParseKind(table)
	if !ok {
		return "", errs.Invalid("unknown table")
	}
	return kind, nil
}

// recordKey reads fileId and, for item-scoped kinds, id from obj.
func recordKey(kind entities.Kind, username string, obj map[string]any) (entities.Key, error) {
	fileID, _ := obj["fileId"].(string)
	if fileID == "" {
		return entities.Key{}, errs.Invalid("no fileId")
	}
	key := entities.Key{Username: username, FileID: fileID}
	if !kind.ItemScoped() {
		return key, nil
	}

	raw, present := obj["id"]
	if !present {
		return key, errs.Invalid("no id")
	}
	id, ok := itemIDValue(raw)
	if !ok {
		return key, errs.Invalid("bad id")
	}
	key.ItemID = id
	return key, nil
}

// buildRecord fills the kind's payload columns from a client row.
func buildRecord(kind entities.Kind, key entities.Key, row map[string]any) entities.Record {
	switch kind {
	case entities.KindBookmark:
		return &entities.Bookmark{
			Username: key.Username,
			FileID:   key.FileID,
			ID:       key.ItemID,
			Locator:  payloadValue(row["locator"]),
			Label:    textValue(row["label"]),
		}
	case entities.KindHighlight:
		return &entities.Highlight{
			Username:  key.Username,
			FileID:    key.FileID,
			ID:        key.ItemID,
			Selection: payloadValue(row["selection"]),
			Label:     textValue(row["label"]),
			Colour:    textValue(row["colour"]),
		}
	case entities.KindNote:
		return &entities.Note{
			Username: key.Username,
			FileID:   key.FileID,
			ID:       key.ItemID,
			Locator:  payloadValue(row["locator"]),
			Content:  textValue(row["content"]),
		}
	}
	return &entities.UserBookState{
		Username: key.Username,
		FileID:   key.FileID,
		Progress: payloadValue(row["progress"]),
	}
}
