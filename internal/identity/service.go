package identity

import (
	"context"
	"sync"

	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
	"github.com/cbc-energia/fieldops-backend/pkg/security"
)

// ServiceParams groups dependencies for the identity service.
type ServiceParams struct {
	Store     kv.Store
	Directory *Directory
	Logger    *logger.Logger
}

// Service holds the current acting identity. One identity is active at a
// time; it survives restarts through the durable store.
type Service interface {
	Hydrate(ctx context.Context) error
	Current() (User, bool)
	// Stage replaces the in-memory identity without persisting it. Callers
	// that batch the identity write with another mutation use this after
	// their batch commits.
	Stage(user User)
	Login(ctx context.Context, email, password string) (User, error)
	Logout(ctx context.Context) error
	DemoAccounts() []DemoAccount
}

type service struct {
	mu        sync.RWMutex
	store     kv.Store
	directory *Directory
	logg      *logger.Logger

	current *User
}

// NewService builds an identity service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required")
	}
	if params.Directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "directory is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		store:     params.Store,
		directory: params.Directory,
		logg:      params.Logger,
	}, nil
}

// Hydrate restores the persisted identity from the durable store. A missing
// or unreadable snapshot leaves the service logged out.
func (s *service) Hydrate(ctx context.Context) error {
	var user User
	found, err := s.store.Load(ctx, kv.KeyAuthUser, &user)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if !user.Role.IsValid() {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID), "discarding persisted identity with unknown role")
		return nil
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return nil
}

func (s *service) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return User{}, false
	}
	return *s.current, true
}

func (s *service) Stage(user User) {
	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
}

// Login verifies credentials against the directory, persists the identity
// snapshot, and makes it current.
func (s *service) Login(ctx context.Context, email, password string) (User, error) {
	account, ok := s.directory.Lookup(email)
	if !ok {
		return User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "usuário não encontrado")
	}

	match, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credentials")
	}
	if !match {
		return User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "senha incorreta")
	}

	user := account.User
	if err := s.store.Save(ctx, kv.KeyAuthUser, user); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()

	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "identity signed in")
	return user, nil
}

// Logout clears the current identity and its persisted snapshot.
func (s *service) Logout(ctx context.Context) error {
	if err := s.store.Save(ctx, kv.KeyAuthUser, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

func (s *service) DemoAccounts() []DemoAccount {
	return s.directory.DemoAccounts()
}
