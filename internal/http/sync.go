package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/database/changefeed"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// SyncController serves the record synchronization endpoints. All of them
// are POST with a JSON body and report application errors in-band.
type SyncController struct {
	sync SyncOperations
}

func NewSyncController(sync SyncOperations) *SyncController {
	return &SyncController{sync: sync}
}

// Check handles POST /check
func (sc *SyncController) Check(c *gin.Context) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	kind, err := tableKind(body)
	if err != nil {
		respondError(c, err)
		return
	}
	// localUpdatedAt is informational but must be an integer when sent.
	if v, present := body["localUpdatedAt"]; present {
		if _, ok := int64Value(v); !ok {
			respondInvalid(c, "bad localUpdatedAt")
			return
		}
	}
	key, err := recordKey(kind, auth.GetUsername(c), body)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := sc.sync.Check(kind, key)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"exists": state.Exists, "deleted": state.Deleted}
	if ts := state.EffectiveTimestamp(); ts > 0 {
		resp["updatedAt"] = ts
	}
	respondOK(c, resp)
}

// Update handles POST /update
func (sc *SyncController) Update(c *gin.Context) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	kind, err := tableKind(body)
	if err != nil {
		respondError(c, err)
		return
	}
	row, ok := body["row"].(map[string]any)
	if !ok {
		respondInvalid(c, "no row data")
		return
	}

	force := false
	if v, present := body["force"]; present {
		if force, ok = flexibleBool(v); !ok {
			respondInvalid(c, "invalid value for force tag")
			return
		}
	}
	clientTS, ok := int64Value(row["updatedAt"])
	if !ok {
		respondInvalid(c, "invalid updatedAt value")
		return
	}
	key, err := recordKey(kind, auth.GetUsername(c), row)
	if err != nil {
		respondError(c, err)
		return
	}

	ts, err := sc.sync.Update(buildRecord(kind, key, row), clientTS, force)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"updatedAt": ts})
}

// Delete handles POST /delete
func (sc *SyncController) Delete(c *gin.Context) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	kind, err := tableKind(body)
	if err != nil {
		respondError(c, err)
		return
	}
	key, err := recordKey(kind, auth.GetUsername(c), body)
	if err != nil {
		respondError(c, err)
		return
	}

	ts, err := sc.sync.Delete(kind, key)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deletedAt": ts})
}

// Get handles POST /get
func (sc *SyncController) Get(c *gin.Context) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	kind, err := tableKind(body)
	if err != nil {
		respondError(c, err)
		return
	}
	fileID, _ := body["fileId"].(string)
	if fileID == "" {
		respondError(c, errs.Invalid("no fileId"))
		return
	}

	rows, err := sc.sync.Get(kind, auth.GetUsername(c), fileID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"rows": nonNilRows(rows)})
}

// GetSince handles POST /getSince
func (sc *SyncController) GetSince(c *gin.Context) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	kind, err := tableKind(body)
	if err != nil {
		respondError(c, err)
		return
	}
	since, ok := int64Value(body["since"])
	if !ok {
		respondInvalid(c, `no "since" value`)
		return
	}
	limit := changefeed.DefaultLimit
	if v, present := body["limit"]; present {
		n, ok := int64Value(v)
		if !ok {
			respondInvalid(c, "invalid limit")
			return
		}
		limit = changefeed.ClampLimit(int(max(min(n, changefeed.MaxLimit), 0)))
	}

	page, err := sc.sync.ListSince(kind, auth.GetUsername(c), since, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"rows": nonNilRows(page.Rows), "nextSince": page.NextSince})
}

func nonNilRows(rows []entities.Record) []entities.Record {
	if rows == nil {
		return []entities.Record{}
	}
	return rows
}
