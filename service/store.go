package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/arshiyakhan02/contract-agent/config"
	"github.com/arshiyakhan02/contract-agent/model"
)

// RecordStore is the persistence abstraction for contract records.
// Writes replace the whole record atomically; readers observe the
// latest committed record only.
type RecordStore interface {
	Save(contract *model.Contract)
	Get(id string) *model.Contract
	GetByEnvelopeID(envelopeID string) *model.Contract
	List() []*model.Contract
	Delete(id string)
	Count() int
}

// MemoryStore is an in-memory RecordStore.
// In production, this should be replaced with a database.
type MemoryStore struct {
	contracts    map[string]*model.Contract
	mu           sync.RWMutex
	maxContracts int // Maximum contracts to keep, 0 = unlimited
}

// NewMemoryStore creates a record store with the configured capacity cap
func NewMemoryStore(cfg *config.StoreConfig) *MemoryStore {
	maxContracts := cfg.MaxContracts
	if maxContracts < 0 {
		maxContracts = 0
	}
	slog.Info("contract store initialized", "max_contracts", maxContracts)
	return &MemoryStore{
		contracts:    make(map[string]*model.Contract),
		maxContracts: maxContracts,
	}
}

func (s *MemoryStore) Save(contract *model.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract.UpdatedAt = time.Now()
	s.contracts[contract.ID] = contract

	// Cleanup if exceeds max
	s.cleanupIfNeeded()
}

func (s *MemoryStore) Get(id string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.contracts[id]; ok {
		return c.Clone()
	}
	return nil
}

// GetByEnvelopeID finds the contract that was submitted under the given
// signing envelope. Envelope ids are unique across records, so the first
// match is the only match.
func (s *MemoryStore) GetByEnvelopeID(envelopeID string) *model.Contract {
	if envelopeID == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contracts {
		if c.EnvelopeID == envelopeID {
			return c.Clone()
		}
	}
	return nil
}

func (s *MemoryStore) List() []*model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contracts, id)
}

// cleanupIfNeeded removes oldest contracts if store exceeds maxContracts
// Must be called with lock held
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxContracts <= 0 {
		return // Unlimited
	}

	if len(s.contracts) <= s.maxContracts {
		return
	}

	// Sort contracts by creation time
	contracts := make([]*model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		contracts = append(contracts, c)
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})

	// Remove oldest contracts
	removeCount := len(contracts) - s.maxContracts
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old contract",
			"contract_id", contracts[i].ID,
			"created_at", contracts[i].CreatedAt,
		)
		delete(s.contracts, contracts[i].ID)
	}
}

// Count returns the number of contracts in the store
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}
