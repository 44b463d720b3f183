package user

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/web"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

// Service implements registration, login, and account lookup. It also
// satisfies auth.UserResolver so the middleware re-checks accounts against
// the store on every request.
type Service struct {
	users  Repository
	issuer *auth.TokenIssuer
}

func NewService(users Repository, issuer *auth.TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// AuthResult is a freshly issued token plus the account it belongs to.
type AuthResult struct {
	Token string
	User  *User
}

// Register creates a staff account. Patients cannot self-register; their
// accounts are created by the patient-creation flow.
func (s *Service) Register(ctx context.Context, name, email, password string, role auth.Role) (*AuthResult, error) {
	if name == "" || email == "" || password == "" || role == "" {
		return nil, web.Validation("All fields are required")
	}
	if !role.Valid() {
		return nil, web.Validation("Invalid role")
	}
	if role == auth.RolePatient {
		return nil, web.Forbidden("Patient registration is not allowed. Please contact your doctor or administrator to create your account.")
	}
	if !emailRe.MatchString(email) {
		return nil, web.Validation("Invalid email format")
	}
	if len(password) < minPasswordLen {
		return nil, web.Validation("Password must be at least 6 characters long")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, web.Conflict("User with this email already exists")
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, web.Upstream("Registration failed", err)
	}

	u, err := s.createAccount(ctx, name, email, password, role)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, web.Upstream("Registration failed", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Login verifies credentials and issues a token. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, web.Validation("Email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.Unauthenticated("Invalid email or password")
		}
		return nil, web.Upstream("Login failed", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, web.Unauthenticated("Invalid email or password")
	}

	token, err := s.issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, web.Upstream("Login failed", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ResolveUser implements auth.UserResolver.
func (s *Service) ResolveUser(ctx context.Context, id uuid.UUID) (*auth.CurrentUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.CurrentUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}

// CreatePatientAccount creates the login account backing a patient record.
// Used by the patient-creation flow, which owns validation of the clinical
// fields; credentials are validated here.
func (s *Service) CreatePatientAccount(ctx context.Context, name, email, password string) (*User, error) {
	if email == "" {
		return nil, web.Validation("Email is required to create patient login credentials")
	}
	if !emailRe.MatchString(email) {
		return nil, web.Validation("Invalid email format")
	}
	if len(password) < minPasswordLen {
		return nil, web.Validation("Password must be at least 6 characters long")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, web.Conflict("Email already exists. Please use a different email.")
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, web.Upstream("Failed to create patient account", err)
	}

	return s.createAccount(ctx, name, email, password, auth.RolePatient)
}

// DeleteAccount removes a user. It is also the compensating action when a
// later step of a multi-write flow fails.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) createAccount(ctx context.Context, name, email, password string, role auth.Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, web.Upstream("Failed to hash password", err)
	}

	u := &User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, web.Conflict("User with this email already exists")
		}
		upErr := web.Upstream("Failed to create user", err)
		if db.IsMissingRelation(err) {
			upErr = upErr.WithHint("Database tables may not exist. Run: medilink-server migrate up")
		}
		return nil, upErr
	}
	return u, nil
}
