// Package auth provides reader accounts, login and bearer-token sessions.
//
// Accounts are created offline with the add-user command; the password is
// stored as a bcrypt hash. A successful POST /login returns a random session
// token that clients send as "Authorization: Bearer <token>" on every other
// request. Tokens expire after TOKENTIMEOUT minutes and are never refreshed.
//
// # Configuration
//
//	TOKENTIMEOUT=60          # Session lifetime in minutes
//	COMPAT=0.0.0             # Client version /login requires
//	SESSION_STORE=memory     # or "sqlite" to survive restarts
//	AUTH_BCRYPT_COST=12      # bcrypt cost factor
//
// # Usage
//
//	sessions := auth.NewSessionManager(auth.NewMemoryStore(), cfg.TokenTimeout)
//	service := auth.NewService(userRepo, sessions, cfg.Auth.BcryptCost, cfg.Compat)
//	mw := auth.NewMiddleware(sessions)
//	router.POST("/check", mw.RequireJSON(), handler)
//
// Extract the user in handlers:
//
//	username := auth.GetUsername(c)
package auth
