package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/mrlokans/readsync/internal/database/users"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._@+-]{1,64}$`)

var (
	ErrUserExists         = users.ErrUserExists
	ErrUsernameInvalid    = errors.New("username must be 1-64 characters: letters, digits and . _ @ + -")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("username, password and version are required")
)

// VersionError rejects a client whose version differs from the configured
// compatibility string.
type VersionError struct {
	Expected string
	Got      string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("client version %q is not supported, expected %q", e.Got, e.Expected)
}

// UserStore defines the interface for user data access.
type UserStore interface {
	CreateUser(username, passwordHash string) (*entities.User, error)
	GetUserByUsername(username string) (*entities.User, error)
	SetPasswordHash(username, passwordHash string) error
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Version  string `json:"version"`
	Device   string `json:"device"`
}

// Service handles accounts and login.
type Service struct {
	users      UserStore
	sessions   *SessionManager
	bcryptCost int
	compat     string
}

// NewService creates a new authentication service. sessions may be nil for
// callers that only manage accounts.
func NewService(users UserStore, sessions *SessionManager, bcryptCost int, compat string) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		compat:     compat,
	}
}

// CreateUser creates a new account with a hashed password.
func (s *Service) CreateUser(username, password string) (*entities.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(username, hash)
}

// ResetPassword replaces the password of an existing account.
func (s *Service) ResetPassword(username, password string) error {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(username, hash)
}

// Authenticate validates credentials and returns the user. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// Login checks the version gate and the credentials, then issues a session.
func (s *Service) Login(req LoginRequest) (*Session, error) {
	if req.Username == "" || req.Password == "" || req.Version == "" {
		return nil, ErrMissingFields
	}
	if req.Version != s.compat {
		return nil, &VersionError{Expected: s.compat, Got: req.Version}
	}

	user, err := s.Authenticate(req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	if req.Device == "" {
		log.Printf("user [%s] logged in on unidentified device", user.Username)
	} else {
		log.Printf("user [%s] logged in on device [%s]", user.Username, req.Device)
	}

	return s.sessions.Add(user.Username, req.Device)
}

// Compat returns the client version string Login requires.
func (s *Service) Compat() string { return s.compat }
