package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/errs"
)

// Wire error codes.
const (
	codeInvalidRequest   = "invalid_request"
	codeUnauthorised     = "unauthorised"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeTooLarge         = "too_large"
	codeSizeMismatch     = "size_mismatch"
	codeChecksumMismatch = "checksum_mismatch"
	codeServerError      = "server_error"
)

// respondError maps a service error onto the in-band error envelope. Every
// application error is reported with 200; only unclassified failures are
// logged.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrConflict):
		ts, _ := errs.ServerTimestamp(err)
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": codeConflict, "serverUpdatedAt": ts})
	case errors.Is(err, errs.ErrInvalidInput):
		respondInvalid(c, errs.Reason(err))
	case errors.Is(err, errs.ErrUnknownReference):
		respondInvalid(c, "unknown fileId")
	case errors.Is(err, errs.ErrNotFound):
		respondFail(c, http.StatusOK, codeNotFound, "")
	case errors.Is(err, errs.ErrTooLarge):
		respondFail(c, http.StatusOK, codeTooLarge, "")
	case errors.Is(err, errs.ErrSizeMismatch):
		respondFail(c, http.StatusOK, codeSizeMismatch, "")
	case errors.Is(err, errs.ErrChecksumMismatch):
		respondFail(c, http.StatusOK, codeChecksumMismatch, "")
	case errors.Is(err, errs.ErrUnauthorised):
		respondFail(c, http.StatusOK, codeUnauthorised, "")
	default:
		log.Printf("Internal error (%s): %v", c.FullPath(), err)
		respondFail(c, http.StatusOK, codeServerError, "")
	}
}
