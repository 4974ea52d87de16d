// Package memstore is the in-memory storage backend holding the user
// directory and the link store. Instances are constructed explicitly and
// injected, so tests can run against isolated stores.
package memstore

import (
	"context"
	"errors"
	"sync"

	"tinylinks/internal/models"
)

// triesToGenerateUniqueKey bounds the regeneration loop when a freshly
// generated key collides with an existing one.
const triesToGenerateUniqueKey = 10

// ErrKeyGenerationExhausted is returned when no free key was found within
// the allowed number of tries.
var ErrKeyGenerationExhausted = errors.New("the number of attempts to generate a unique key has been exceeded")

// MemStore keeps users and links in process memory. The Go HTTP server
// handles requests concurrently, so all access goes through an RWMutex.
type MemStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	links   map[string]models.Link
	nextKey func() string
}

// New returns an empty MemStore drawing fresh keys from nextKey.
func New(nextKey func() string) *MemStore {
	return &MemStore{
		users:   map[string]models.User{},
		links:   map[string]models.Link{},
		nextKey: nextKey,
	}
}

func (s *MemStore) freeUserKey() (string, error) {
	for i := 0; i < triesToGenerateUniqueKey; i++ {
		key := s.nextKey()
		if _, exists := s.users[key]; !exists {
			return key, nil
		}
	}
	return "", ErrKeyGenerationExhausted
}

func (s *MemStore) freeLinkKey() (string, error) {
	for i := 0; i < triesToGenerateUniqueKey; i++ {
		key := s.nextKey()
		if _, exists := s.links[key]; !exists {
			return key, nil
		}
	}
	return "", ErrKeyGenerationExhausted
}

// CreateUser registers a new user with a fresh generated id.
// It returns models.ErrEmailTaken when the email is already registered.
func (s *MemStore) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usr := range s.users {
		if usr.Email == email {
			return models.User{}, models.ErrEmailTaken
		}
	}

	id, err := s.freeUserKey()
	if err != nil {
		return models.User{}, err
	}

	usr := models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
	}
	s.users[id] = usr

	return usr, nil
}

// GetUserByID returns the user with the given id.
func (s *MemStore) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.users[userID]
	if !found {
		return models.User{}, models.ErrUserNotFound
	}

	return usr, nil
}

// FindUserByEmail scans the directory for an exact, case-sensitive email
// match and returns the first hit.
func (s *MemStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.users {
		if usr.Email == email {
			return usr, nil
		}
	}

	return models.User{}, models.ErrUserNotFound
}

// InsertLink stores a new link under a fresh generated code and returns it.
func (s *MemStore) InsertLink(ctx context.Context, longURL, ownerID string) (models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.freeLinkKey()
	if err != nil {
		return models.Link{}, err
	}

	link := models.Link{
		ShortCode: code,
		LongURL:   longURL,
		OwnerID:   ownerID,
	}
	s.links[code] = link

	return link, nil
}

// FindLinkByCode returns the link stored under the given short code.
func (s *MemStore) FindLinkByCode(ctx context.Context, shortCode string) (models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, found := s.links[shortCode]
	if !found {
		return models.Link{}, models.ErrLinkNotFound
	}

	return link, nil
}

// UpdateLink overwrites the destination URL of an existing link.
// The original owner is preserved.
func (s *MemStore) UpdateLink(ctx context.Context, shortCode, newLongURL string) (models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, found := s.links[shortCode]
	if !found {
		return models.Link{}, models.ErrLinkNotFound
	}

	link.LongURL = newLongURL
	s.links[shortCode] = link

	return link, nil
}

// DeleteLink removes the link stored under the given short code.
func (s *MemStore) DeleteLink(ctx context.Context, shortCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.links[shortCode]; !found {
		return models.ErrLinkNotFound
	}
	delete(s.links, shortCode)

	return nil
}

// LinksForOwner returns the subset of links owned by the given user,
// keyed by short code. The store itself is left untouched.
func (s *MemStore) LinksForOwner(ctx context.Context, ownerID string) (map[string]models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := map[string]models.Link{}
	for code, link := range s.links {
		if link.OwnerID == ownerID {
			result[code] = link
		}
	}

	return result, nil
}

// AllLinks returns a copy of the whole link store keyed by short code.
func (s *MemStore) AllLinks(ctx context.Context) (map[string]models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.Link, len(s.links))
	for code, link := range s.links {
		result[code] = link
	}

	return result, nil
}

// GetNumberOfLinks reports how many links are stored.
func (s *MemStore) GetNumberOfLinks(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.links)), nil
}

// GetNumberOfUsers reports how many accounts exist.
func (s *MemStore) GetNumberOfUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.users)), nil
}

// Ping reports storage health. Memory storage is always healthy.
func (s *MemStore) Ping(ctx context.Context) error {
	return nil
}

// Close releases storage resources. Memory storage has none.
func (s *MemStore) Close() error {
	return nil
}
