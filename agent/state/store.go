package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilSession      = errors.New("session is nil")
)

// Store persists sessions between turns.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// sessionDoc is the wire form of a Session. The live cart does not serialize
// itself (it holds the catalog), so its lines are flattened here and the cart
// is rebuilt against the catalog on load.
type sessionDoc struct {
	SessionID     string           `json:"session_id"`
	Phase         contractx.Phase  `json:"phase"`
	Lines         []cartx.LineItem `json:"lines,omitempty"`
	History       []HistoryEntry   `json:"history,omitempty"`
	Cycle         int              `json:"cycle"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func docFromSession(s *Session) (sessionDoc, error) {
	if s == nil {
		return sessionDoc{}, ErrNilSession
	}
	if s.SessionID == "" {
		return sessionDoc{}, ErrInvalidSession
	}
	return sessionDoc{
		SessionID:     s.SessionID,
		Phase:         s.Phase,
		Lines:         s.Cart.Lines(),
		History:       append([]HistoryEntry(nil), s.History...),
		Cycle:         s.Cycle,
		CorrelationID: s.CorrelationID,
		UpdatedAt:     s.UpdatedAt.UTC(),
	}, nil
}

func (d sessionDoc) session(catalog *menux.Catalog) *Session {
	return &Session{
		SessionID:     d.SessionID,
		Phase:         d.Phase,
		Cart:          cartx.Restore(d.SessionID, catalog, d.Lines),
		History:       append([]HistoryEntry(nil), d.History...),
		Cycle:         d.Cycle,
		CorrelationID: d.CorrelationID,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MemoryStore keeps sessions in process memory. Distinct sessions may be
// saved and loaded concurrently.
type MemoryStore struct {
	catalog *menux.Catalog

	mu   sync.RWMutex
	docs map[string]sessionDoc
}

func NewMemoryStore(catalog *menux.Catalog) *MemoryStore {
	return &MemoryStore{
		catalog: catalog,
		docs:    make(map[string]sessionDoc),
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	doc, ok := m.docs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return doc.session(m.catalog), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	doc, err := docFromSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[doc.SessionID] = doc
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.docs, sessionID)
	m.mu.Unlock()
	return nil
}

// EncodeSession and DecodeSession are the shared wire codec used by the
// remote store implementations.
func EncodeSession(s *Session) ([]byte, error) {
	doc, err := docFromSession(s)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return payload, nil
}

func DecodeSession(payload []byte, catalog *menux.Catalog) (*Session, error) {
	var doc sessionDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	s := doc.session(catalog)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session loaded from store: %w", err)
	}
	return s, nil
}
