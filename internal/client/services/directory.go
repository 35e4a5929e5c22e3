package services

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

// DirectoryService keeps the client's view of the user's chat sessions.
//
// Contract:
//   - ListSessions: fetch from the server and replace the cache wholesale.
//     On failure the previous cache is kept.
//   - CreateSession: create on the server, refresh the cache, return the id
//     from the creation response.
//   - Sessions/Lookup: read the cache without touching the network.
//   - Reset: drop the cache (on logout).
type DirectoryService interface {
	ListSessions(ctx context.Context) ([]models.ChatSession, error)
	CreateSession(ctx context.Context, name string) (int64, error)
	Sessions() []models.ChatSession
	Lookup(id int64) (models.ChatSession, bool)
	Reset()
}

type directoryService struct {
	client client.Client
	log    logging.Logger

	mu       sync.RWMutex
	sessions []models.ChatSession
}

func NewDirectoryService(c client.Client, log logging.Logger) DirectoryService {
	return &directoryService{client: c, log: log.With("component", "directory")}
}

func (d *directoryService) ListSessions(ctx context.Context) ([]models.ChatSession, error) {
	sessions, err := d.client.ListChats(ctx)
	if err != nil {
		d.log.Error(ctx, "listing sessions failed", "error", err)
		return d.Sessions(), err
	}

	d.mu.Lock()
	d.sessions = sessions
	d.mu.Unlock()

	d.log.Debug(ctx, "sessions refreshed", "count", len(sessions))
	return clone(sessions), nil
}

// CreateSession returns the new id even when the follow-up refresh fails;
// the refresh error is returned alongside it.
func (d *directoryService) CreateSession(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = common.DefaultSessionName
	}

	id, err := d.client.StartChat(ctx, name)
	if err != nil {
		d.log.Error(ctx, "creating session failed", "name", name, "error", err)
		return 0, err
	}
	d.log.Info(ctx, "session created", "session_id", id, "name", name)

	if _, err := d.ListSessions(ctx); err != nil {
		return id, err
	}
	return id, nil
}

func (d *directoryService) Sessions() []models.ChatSession {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return clone(d.sessions)
}

func (d *directoryService) Lookup(id int64) (models.ChatSession, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return models.ChatSession{}, false
}

func (d *directoryService) Reset() {
	d.mu.Lock()
	d.sessions = nil
	d.mu.Unlock()
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
