package user

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/ec-dispatch/internal/auth"
	"github.com/example/ec-dispatch/internal/domain/aggregate"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDeactivated    = errors.New("user account is deactivated")
)

// User represents a user aggregate. Riders have their own aggregate; this
// covers customers and admins.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// Aggregate interface implementation
func (u *User) GetID() string    { return u.ID }
func (u *User) GetVersion() int  { return u.Version }
func (u *User) SetVersion(v int) { u.Version = v }

// ApplyEvent applies a single event to the user state (implements aggregate.Aggregate)
func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserCreated:
		var data UserCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.Email = data.Email
		u.PasswordHash = data.PasswordHash
		u.Name = data.Name
		u.Role = data.Role
		u.IsActive = true
		u.CreatedAt = data.CreatedAt
		u.UpdatedAt = data.CreatedAt
	case EventUserUpdated:
		var data UserUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Name = data.Name
		u.UpdatedAt = data.UpdatedAt
	case EventUserPasswordChanged:
		var data UserPasswordChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.PasswordHash = data.PasswordHash
		u.UpdatedAt = data.ChangedAt
	case EventUserDeactivated:
		var data UserDeactivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.IsActive = false
		u.UpdatedAt = data.DeactivatedAt
	case EventUserActivated:
		var data UserActivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.IsActive = true
		u.UpdatedAt = data.ActivatedAt
	}
	u.Version = event.Version
	return nil
}

// Service handles user domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) loadUser(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.LoadAggregate(ctx, s.eventStore, userID, func() *User {
		return &User{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Get returns the current user state.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.loadUser(ctx, userID)
}

func (s *Service) append(ctx context.Context, u *User, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, u.ID, AggregateType, eventType, data, u.Version)
	if err != nil {
		return err
	}

	if err := u.ApplyEvent(*storedEvent); err != nil {
		return err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, u, AggregateType); err != nil {
		log.Printf("[User] Failed to create snapshot for user %s: %v", u.ID, err)
	}
	return nil
}

// Register creates a new user
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, "customer")
}

// RegisterAdmin creates a new admin user
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, "admin")
}

// RegisterWithRole creates a new user with a specific role
func (s *Service) RegisterWithRole(ctx context.Context, email, password, name, role string) (*User, error) {
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	event := UserCreated{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	u := &User{ID: userID}
	if err := s.append(ctx, u, EventUserCreated, event); err != nil {
		return nil, err
	}
	return u, nil
}

// RecordLogin records a user login event
func (s *Service) RecordLogin(ctx context.Context, userID, ipAddress, userAgent string) error {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	event := UserLoggedIn{
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}
	return s.append(ctx, u, EventUserLoggedIn, event)
}

// UpdateProfile updates user profile information
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) error {
	if name == "" {
		return ErrInvalidName
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	event := UserUpdated{
		UserID:    userID,
		Name:      name,
		UpdatedAt: time.Now(),
	}
	return s.append(ctx, u, EventUserUpdated, event)
}

// ChangePassword changes user password
func (s *Service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	}
	return s.append(ctx, u, EventUserPasswordChanged, event)
}

// SetActive activates or deactivates a user account
func (s *Service) SetActive(ctx context.Context, userID string, active bool) error {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	if active {
		return s.append(ctx, u, EventUserActivated, UserActivated{UserID: userID, ActivatedAt: now})
	}
	return s.append(ctx, u, EventUserDeactivated, UserDeactivated{UserID: userID, DeactivatedAt: now})
}
