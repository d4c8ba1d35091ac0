package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/arshiyakhan02/contract-agent/config"
	"github.com/arshiyakhan02/contract-agent/model"
)

func newTestStore(maxContracts int) *MemoryStore {
	return NewMemoryStore(&config.StoreConfig{MaxContracts: maxContracts})
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	store := newTestStore(100)

	contract := &model.Contract{
		ID:          "test-id-1",
		SubjectName: "John Doe",
		Status:      model.StatusDraft,
		CreatedAt:   time.Now(),
	}

	store.Save(contract)

	// Test Get
	retrieved := store.Get("test-id-1")
	if retrieved == nil {
		t.Fatal("Expected to retrieve contract")
	}
	if retrieved.SubjectName != "John Doe" {
		t.Errorf("Expected subject John Doe, got %s", retrieved.SubjectName)
	}

	// Test Get non-existent
	notFound := store.Get("non-existent")
	if notFound != nil {
		t.Error("Expected nil for non-existent contract")
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := newTestStore(100)

	store.Save(&model.Contract{
		ID:       "copy-test",
		Status:   model.StatusDraft,
		Metadata: map[string]string{"price": "100.00"},
	})

	first := store.Get("copy-test")
	first.Status = model.StatusSigned
	first.Metadata["price"] = "999.99"

	second := store.Get("copy-test")
	if second.Status != model.StatusDraft {
		t.Errorf("Expected stored status unchanged, got %s", second.Status)
	}
	if second.Metadata["price"] != "100.00" {
		t.Errorf("Expected stored metadata unchanged, got %s", second.Metadata["price"])
	}
}

func TestMemoryStoreGetByEnvelopeID(t *testing.T) {
	store := newTestStore(100)

	store.Save(&model.Contract{ID: "1", EnvelopeID: "env-1", CreatedAt: time.Now()})
	store.Save(&model.Contract{ID: "2", EnvelopeID: "env-2", CreatedAt: time.Now()})
	store.Save(&model.Contract{ID: "3", CreatedAt: time.Now()})

	found := store.GetByEnvelopeID("env-2")
	if found == nil {
		t.Fatal("Expected to find contract by envelope id")
	}
	if found.ID != "2" {
		t.Errorf("Expected contract 2, got %s", found.ID)
	}

	if store.GetByEnvelopeID("env-unknown") != nil {
		t.Error("Expected nil for unknown envelope id")
	}

	// Records with no envelope id must never match an empty lookup
	if store.GetByEnvelopeID("") != nil {
		t.Error("Expected nil for empty envelope id")
	}
}

func TestMemoryStoreList(t *testing.T) {
	store := newTestStore(100)

	now := time.Now()
	store.Save(&model.Contract{ID: "b", CreatedAt: now.Add(time.Second)})
	store.Save(&model.Contract{ID: "a", CreatedAt: now})

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 contracts, got %d", len(list))
	}
	if list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("Expected creation-time order [a b], got [%s %s]", list[0].ID, list[1].ID)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newTestStore(100)

	store.Save(&model.Contract{ID: "delete-me", CreatedAt: time.Now()})

	if store.Get("delete-me") == nil {
		t.Fatal("Expected contract to exist before delete")
	}

	store.Delete("delete-me")

	if store.Get("delete-me") != nil {
		t.Error("Expected contract to be deleted")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := newTestStore(2)

	now := time.Now()
	store.Save(&model.Contract{ID: "oldest", CreatedAt: now.Add(-2 * time.Hour)})
	store.Save(&model.Contract{ID: "middle", CreatedAt: now.Add(-1 * time.Hour)})
	store.Save(&model.Contract{ID: "newest", CreatedAt: now})

	if store.Count() != 2 {
		t.Errorf("Expected 2 contracts after cleanup, got %d", store.Count())
	}
	if store.Get("oldest") != nil {
		t.Error("Expected oldest contract to be cleaned up")
	}
	if store.Get("newest") == nil {
		t.Error("Expected newest contract to survive cleanup")
	}
}

func TestMemoryStoreUnlimited(t *testing.T) {
	store := newTestStore(0)

	for i := 0; i < 150; i++ {
		store.Save(&model.Contract{ID: fmt.Sprintf("c-%d", i), CreatedAt: time.Now()})
	}

	if store.Count() != 150 {
		t.Errorf("Expected all 150 contracts kept with unlimited store, got %d", store.Count())
	}
}
