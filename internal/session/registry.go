package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/leengari/cohort-sql/internal/engine"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/storage"
	"github.com/leengari/cohort-sql/internal/store"
)

// Loader fills a fresh store with the source tables of a pipeline
type Loader func(profile *pipeline.Profile) (*store.Store, *storage.Catalog, error)

// DirectoryLoader loads snapshot files from dir
func DirectoryLoader(dir string, logger *slog.Logger) Loader {
	return func(profile *pipeline.Profile) (*store.Store, *storage.Catalog, error) {
		s := store.New()
		catalog, err := storage.LoadDirectory(dir, s, profile.Load, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, catalog, nil
	}
}

// DatabaseLoader loads every table of a live database
func DatabaseLoader(db *sql.DB, driver string, logger *slog.Logger) Loader {
	return func(profile *pipeline.Profile) (*store.Store, *storage.Catalog, error) {
		s := store.New()
		catalog, err := storage.LoadFromDB(context.Background(), db, driver, s, profile.Load, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, catalog, nil
	}
}

type source struct {
	store   *store.Store
	catalog *storage.Catalog
}

// Registry manages open sessions in a thread-safe way.
// Source tables are loaded once per pipeline and every session works on its own copy.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	sources  map[string]*source // keyed by pipeline name
	loader   Loader
	engine   *engine.Engine
}

// NewRegistry creates a new session registry
func NewRegistry(loader Loader, eng *engine.Engine) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		sources:  make(map[string]*source),
		loader:   loader,
		engine:   eng,
	}
}

// Open creates a session for profile with a private copy of the source tables
func (r *Registry) Open(profile *pipeline.Profile) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[profile.Name]
	if !ok {
		s, catalog, err := r.loader(profile)
		if err != nil {
			return nil, fmt.Errorf("failed to load source tables for %s: %w", profile.Name, err)
		}
		if catalog == nil {
			catalog = &storage.Catalog{Aliases: storage.NewAliasMap()}
		}
		src = &source{store: s, catalog: catalog}
		r.sources[profile.Name] = src
	}

	sess := &Session{
		ID:      uuid.New().String(),
		Catalog: src.catalog,
		state:   pipeline.NewState(profile, src.store.Clone(), src.catalog.Aliases),
		engine:  r.engine,
	}
	r.sessions[sess.ID] = sess

	slog.Info("session opened",
		slog.String("session_id", sess.ID),
		slog.String("pipeline", profile.Name),
		slog.Int("tables", sess.state.Store.Len()),
	)
	return sess, nil
}

// Get returns the session with the given ID
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Close forgets a session; its tables are released with it
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	slog.Info("session closed", slog.String("session_id", id))
	return true
}

// List returns the IDs of the open sessions
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
