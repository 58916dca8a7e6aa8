package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/auth"
)

// LoginController exchanges credentials for a bearer token.
type LoginController struct {
	auth     Authenticator
	limiter  LoginLimiter
	activity ActivityLog
}

// NewLoginController creates a login controller. limiter may be nil.
func NewLoginController(authenticator Authenticator, limiter LoginLimiter) *LoginController {
	return &LoginController{auth: authenticator, limiter: limiter}
}

// Login handles POST /login
// Unlike the sync endpoints, failures carry HTTP status codes.
func (lc *LoginController) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid_json", "")
		return
	}
	if req.Username == "" || req.Password == "" || req.Version == "" {
		respondFail(c, http.StatusBadRequest, "missing_fields", "")
		return
	}

	ip := c.ClientIP()
	if lc.limiter != nil {
		if allowed, retry := lc.limiter.Allow(ip, req.Username); !allowed {
			c.Header("Retry-After", strconv.Itoa(auth.RetryAfterSeconds(retry)))
			lc.record(c, req.Username, "too_many_attempts")
			respondFail(c, http.StatusTooManyRequests, "too_many_attempts", "")
			return
		}
	}

	session, err := lc.auth.Login(req)
	if err != nil {
		var versionErr *auth.VersionError
		switch {
		case errors.As(err, &versionErr):
			lc.record(c, req.Username, "wrong_version")
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "wrong_version", "expected": versionErr.Expected})
		case errors.Is(err, auth.ErrInvalidCredentials):
			if lc.limiter != nil {
				lc.limiter.RecordFailure(ip, req.Username)
			}
			lc.record(c, req.Username, "invalid_credentials")
			respondFail(c, http.StatusUnauthorized, "invalid_credentials", "")
		case errors.Is(err, auth.ErrMissingFields):
			respondFail(c, http.StatusBadRequest, "missing_fields", "")
		default:
			log.Printf("Internal error (login): %v", err)
			respondFail(c, http.StatusInternalServerError, codeServerError, "")
		}
		return
	}

	if lc.limiter != nil {
		lc.limiter.RecordSuccess(ip, req.Username)
	}
	lc.record(c, req.Username, "")
	respondOK(c, gin.H{"token": session.Token, "expiresAt": session.ExpiresAt.UnixMilli()})
}

func (lc *LoginController) record(c *gin.Context, username, failure string) {
	if lc.activity != nil {
		lc.activity.LogLogin(username, c.ClientIP(), c.Request.UserAgent(), failure)
	}
}
