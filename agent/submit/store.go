package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

var ErrRecordNotFound = errors.New("submission record not found")

// MemoryStore is an in-process append-only record store. Appends from
// concurrent sessions are serialized by the mutex, so records never
// interleave.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    int64
	all    []*contractx.SubmissionRecord
	byCorr map[string]*contractx.SubmissionRecord
}

var _ contractx.SubmissionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCorr: make(map[string]*contractx.SubmissionRecord),
	}
}

func (m *MemoryStore) Append(_ context.Context, rec *contractx.SubmissionRecord) error {
	if rec == nil {
		return errors.New("nil submission record")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byCorr[rec.CorrelationID]; dup {
		return fmt.Errorf("duplicate submission record for correlation_id=%s", rec.CorrelationID)
	}
	stored := *rec
	m.all = append(m.all, &stored)
	m.byCorr[rec.CorrelationID] = &stored
	return nil
}

func (m *MemoryStore) ByCorrelationID(_ context.Context, correlationID string) (*contractx.SubmissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byCorr[correlationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, correlationID)
	}
	out := *rec
	return &out, nil
}

// NextSequence reserves an order number under the same mutex that guards
// appends, so two in-flight submissions can never mint the same one.
func (m *MemoryStore) NextSequence(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

// All returns a copy of the records in append order.
func (m *MemoryStore) All() []*contractx.SubmissionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*contractx.SubmissionRecord, 0, len(m.all))
	for _, rec := range m.all {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}
