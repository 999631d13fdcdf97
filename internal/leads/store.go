package leads

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ostapv/leadwatch/internal/statefile"
)

// ErrNotFound is returned for operations on an unknown lead id.
var ErrNotFound = errors.New("lead not found")

// Store is the durable lead registry. All mutations serialize through
// one lock held for the full read-modify-write cycle, and every
// mutation persists the whole registry with an atomic write-replace.
type Store struct {
	mu    sync.Mutex
	log   *slog.Logger
	path  string
	leads map[string]*Lead
	now   func() time.Time
}

// NewStore loads the lead registry from path. A missing or corrupt
// file yields an empty registry.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "lead_store")

	leads := statefile.Load[map[string]*Lead](path, log)
	if leads == nil {
		leads = make(map[string]*Lead)
	}
	log.Info("Lead store loaded", "leads", len(leads), "path", path)

	return &Store{
		log:   log,
		path:  path,
		leads: leads,
		now:   time.Now,
	}
}

// Create assigns an opaque id, stamps creation time and StatusNew, and
// persists the lead. The returned id is lexicographically sortable by
// creation time.
func (s *Store) Create(lead *Lead) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	lead = lead.clone()
	lead.ID = ulid.Make().String()
	lead.CreatedAt = now
	lead.Status = StatusNew
	if lead.Actions == nil {
		lead.Actions = make(map[string]time.Time)
	}

	s.leads[lead.ID] = lead
	if err := s.persistLocked(); err != nil {
		delete(s.leads, lead.ID)
		return "", err
	}

	s.log.Debug("Lead created", "lead_id", lead.ID, "category", lead.Classification.Category, "score", lead.Classification.Score)
	return lead.ID, nil
}

// Get returns a copy of the lead or ErrNotFound.
func (s *Store) Get(id string) (*Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return lead.clone(), nil
}

// SetStatus transitions the lead to the given status and records the
// action timestamp.
func (s *Store) SetStatus(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return ErrNotFound
	}

	prev := lead.Status
	lead.Status = status
	if lead.Actions == nil {
		lead.Actions = make(map[string]time.Time)
	}
	lead.Actions[string(status)] = s.now().UTC()

	if err := s.persistLocked(); err != nil {
		lead.Status = prev
		return err
	}
	s.log.Debug("Lead status updated", "lead_id", id, "from", prev, "to", status)
	return nil
}

// SetDraft replaces the stored draft reply on the lead.
func (s *Store) SetDraft(id, draft string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return ErrNotFound
	}

	prev := lead.Classification.Draft
	lead.Classification.Draft = draft
	if err := s.persistLocked(); err != nil {
		lead.Classification.Draft = prev
		return err
	}
	return nil
}

// List returns copies of all leads, newest first.
func (s *Store) List() []*Lead {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		out = append(out, lead.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Len reports the number of stored leads.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

func (s *Store) persistLocked() error {
	return statefile.Save(s.path, s.leads)
}
