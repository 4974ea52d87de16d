// Package service implements the application operations: account
// registration and login, link CRUD scoped to the owning user, and
// anonymous redirect resolution. Handlers call into this package and map
// its sentinel errors to HTTP statuses.
package service

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"tinylinks/internal/models"
)

type userDirectory interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)

	GetUserByID(ctx context.Context, userID string) (models.User, error)

	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

type linkKeeper interface {
	InsertLink(ctx context.Context, longURL, ownerID string) (models.Link, error)

	FindLinkByCode(ctx context.Context, shortCode string) (models.Link, error)

	UpdateLink(ctx context.Context, shortCode, newLongURL string) (models.Link, error)

	DeleteLink(ctx context.Context, shortCode string) error

	LinksForOwner(ctx context.Context, ownerID string) (map[string]models.Link, error)

	AllLinks(ctx context.Context) (map[string]models.Link, error)

	GetNumberOfLinks(ctx context.Context) (int64, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userDirectory
	linkKeeper
	pinger
}

// Service holds the storage backend and the settings needed to run the
// application operations.
type Service struct {
	db               storage
	shortURLBase     string
	passwordHashCost int
	validate         *validator.Validate
}

// New creates a Service over the given storage. passwordHashCost is the
// bcrypt work factor; tests pass bcrypt.MinCost to stay fast.
func New(db storage, shortURLBase string, passwordHashCost int) *Service {
	return &Service{
		db:               db,
		shortURLBase:     shortURLBase,
		passwordHashCost: passwordHashCost,
		validate:         validator.New(),
	}
}

// Register creates a new account and returns it.
// It returns models.ErrValidation for missing/malformed fields and
// models.ErrEmailTaken for a duplicate email.
func (s *Service) Register(ctx context.Context, email, password string) (models.User, error) {
	credentials := models.Credentials{Email: email, Password: password}
	if err := s.validate.Struct(credentials); err != nil {
		return models.User{}, models.ErrValidation
	}

	if _, err := s.db.FindUserByEmail(ctx, email); err == nil {
		return models.User{}, models.ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordHashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	return s.db.CreateUser(ctx, email, string(passwordHash))
}

// Login verifies the credentials and returns the matching account.
// Unknown email and wrong password are reported identically as
// models.ErrAuthFailure.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, error) {
	usr, err := s.db.FindUserByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.User{}, models.ErrAuthFailure
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return models.User{}, models.ErrAuthFailure
	}

	return usr, nil
}

// GetUser returns the account with the given id.
func (s *Service) GetUser(ctx context.Context, userID string) (models.User, error) {
	return s.db.GetUserByID(ctx, userID)
}

// CreateLink shortens the given URL for the logged-in user.
func (s *Service) CreateLink(ctx context.Context, longURL, userID string) (models.Link, error) {
	if userID == "" {
		return models.Link{}, models.ErrUnauthenticated
	}

	return s.db.InsertLink(ctx, longURL, userID)
}

// GetLink returns the link stored under shortCode after authorizing the
// caller as its owner.
func (s *Service) GetLink(ctx context.Context, shortCode, userID string) (models.Link, error) {
	return s.authorizeLinkAccess(ctx, shortCode, userID)
}

// UpdateLink overwrites the destination of an owned link. The original
// owner is preserved.
func (s *Service) UpdateLink(ctx context.Context, shortCode, newLongURL, userID string) (models.Link, error) {
	if _, err := s.authorizeLinkAccess(ctx, shortCode, userID); err != nil {
		return models.Link{}, err
	}

	return s.db.UpdateLink(ctx, shortCode, newLongURL)
}

// DeleteLink removes an owned link.
func (s *Service) DeleteLink(ctx context.Context, shortCode, userID string) error {
	if _, err := s.authorizeLinkAccess(ctx, shortCode, userID); err != nil {
		return err
	}

	return s.db.DeleteLink(ctx, shortCode)
}

// LinksForOwner returns the caller's links keyed by short code. Anonymous
// callers are rejected before any filtering happens.
func (s *Service) LinksForOwner(ctx context.Context, userID string) (map[string]models.Link, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}

	return s.db.LinksForOwner(ctx, userID)
}

// AllLinks returns the whole store keyed by short code.
func (s *Service) AllLinks(ctx context.Context) (map[string]models.Link, error) {
	return s.db.AllLinks(ctx)
}

// Resolve maps a short code to its destination URL. Deliberately requires
// no authentication: any caller may follow a short link.
func (s *Service) Resolve(ctx context.Context, shortCode string) (string, error) {
	link, err := s.db.FindLinkByCode(ctx, shortCode)
	if err != nil {
		return "", err
	}

	return link.LongURL, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats returns store-wide link and user counts.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	urls, err := s.db.GetNumberOfLinks(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

// ShortURL renders the public short URL for a code.
func (s *Service) ShortURL(shortCode string) string {
	return s.shortURLBase + "/u/" + shortCode
}

// authorizeLinkAccess applies the access policy for link operations:
// an absent code is reported as not found regardless of auth state, then
// anonymous callers and non-owners are rejected.
func (s *Service) authorizeLinkAccess(ctx context.Context, shortCode, userID string) (models.Link, error) {
	link, err := s.db.FindLinkByCode(ctx, shortCode)
	if err != nil {
		return models.Link{}, err
	}

	if userID == "" {
		return models.Link{}, models.ErrUnauthenticated
	}

	if link.OwnerID != userID {
		return models.Link{}, models.ErrNotOwner
	}

	return link, nil
}
