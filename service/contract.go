package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arshiyakhan02/contract-agent/model"
	"github.com/arshiyakhan02/contract-agent/pkg/logger"
	"github.com/google/uuid"
)

// Subject is the person a contract is generated for
type Subject struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Price string `json:"price,omitempty"`
}

// metadata key for the lazily cached extracted text
const metaFullText = "fullText"

// ContractService orchestrates the contract lifecycle:
// DRAFT -> ANALYZED -> SENT_FOR_SIGNATURE -> SIGNED -> ARCHIVED.
// It sequences the document store, template filler, AI analyzer and
// signing provider; none of its locks are held across those calls.
type ContractService struct {
	store     RecordStore
	documents DocumentStore
	filler    *TemplateFiller
	ai        Analyzer
	signing   SigningClient
	returnURL string

	// per-contract guard around SendForSignature: the provider has no
	// idempotency key, so a concurrent double-send would create two
	// envelopes
	sendMu    sync.Mutex
	sendLocks map[string]*sync.Mutex
}

func NewContractService(store RecordStore, documents DocumentStore, filler *TemplateFiller, ai Analyzer, signing SigningClient, returnURL string) *ContractService {
	return &ContractService{
		store:     store,
		documents: documents,
		filler:    filler,
		ai:        ai,
		signing:   signing,
		returnURL: returnURL,
		sendLocks: make(map[string]*sync.Mutex),
	}
}

func (s *ContractService) sendLock(id string) *sync.Mutex {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if mu, ok := s.sendLocks[id]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	s.sendLocks[id] = mu
	return mu
}

// releaseSendLock drops the guard entry for a contract that can no
// longer be sent, so the map does not grow with archived records
func (s *ContractService) releaseSendLock(id string) {
	s.sendMu.Lock()
	delete(s.sendLocks, id)
	s.sendMu.Unlock()
}

// Create fills the named template with the subject's data, stores the
// resulting artifact and registers a new DRAFT contract
func (s *ContractService) Create(ctx context.Context, subject Subject, templateName string) (*model.Contract, error) {
	if strings.TrimSpace(subject.Name) == "" || strings.TrimSpace(subject.Email) == "" {
		return nil, fmt.Errorf("%w: subject name and email are required", ErrValidation)
	}
	if strings.TrimSpace(templateName) == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidation)
	}

	id := uuid.New().String()
	ctx = context.WithValue(ctx, logger.ContractIDKey, id)
	logger.Info(ctx, "creating contract", "template", templateName)

	templateBytes, err := s.documents.Get(ctx, templateName)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateName, err)
	}

	price := subject.Price
	if price == "" {
		price = "100.00"
	}

	filled := s.filler.Fill(templateBytes, map[string]string{
		"name":  subject.Name,
		"email": subject.Email,
		"date":  time.Now().Format("2006-01-02"),
		"price": price,
	})

	artifactRef := fmt.Sprintf("contract-%s.pdf", id)
	if _, err := s.documents.Put(ctx, artifactRef, filled, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store contract artifact: %w", err)
	}

	contract := &model.Contract{
		ID:           id,
		SubjectName:  subject.Name,
		SubjectEmail: subject.Email,
		Status:       model.StatusDraft,
		ArtifactRef:  artifactRef,
		Metadata:     map[string]string{"price": price},
		CreatedAt:    time.Now(),
	}

	s.store.Save(contract)
	return contract, nil
}

// Analyze extracts the contract's text and runs AI analysis over it.
// Idempotent while the contract is DRAFT or ANALYZED: re-running
// overwrites the stored analysis and text. Once the contract has been
// submitted for signature it is frozen and re-analysis is rejected. AI
// failures degrade to a placeholder analysis and still advance the
// contract to ANALYZED; analysis never blocks the workflow.
func (s *ContractService) Analyze(ctx context.Context, id string) (*model.Analysis, error) {
	contract := s.store.Get(id)
	if contract == nil {
		return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
	}
	if !model.CanAnalyze(contract.Status) {
		return nil, fmt.Errorf("%w: contract in status %s cannot be analyzed", ErrValidation, contract.Status)
	}

	ctx = context.WithValue(ctx, logger.ContractIDKey, id)

	data, err := s.documents.Get(ctx, contract.ArtifactRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract artifact: %w", err)
	}

	text := s.ai.ExtractText(data)
	analysis := s.ai.Analyze(ctx, text)

	contract.Status = model.StatusAnalyzed
	contract.Analysis = analysis
	contract.Metadata[metaFullText] = text
	s.store.Save(contract)

	logger.Info(ctx, "contract analyzed", "degraded", analysis.Degraded)
	return analysis, nil
}

// SendForSignature submits the contract to the signing provider and
// requests an embedded-signing link.
//
// The envelope id and SENT_FOR_SIGNATURE status are committed before the
// link fetch: submission is the expensive, non-idempotent step and must
// not be repeated because link retrieval failed. A contract that already
// has an envelope id only re-requests the link.
func (s *ContractService) SendForSignature(ctx context.Context, id string) (envelopeID, signingURL string, err error) {
	mu := s.sendLock(id)
	mu.Lock()
	defer mu.Unlock()

	contract := s.store.Get(id)
	if contract == nil {
		return "", "", fmt.Errorf("%w: contract %s", ErrNotFound, id)
	}

	ctx = context.WithValue(ctx, logger.ContractIDKey, id)

	signer := Signer{
		Name:         contract.SubjectName,
		Email:        contract.SubjectEmail,
		ClientUserID: contract.ID,
	}

	envelopeID = contract.EnvelopeID
	if envelopeID == "" {
		if !model.CanSend(contract.Status) {
			return "", "", fmt.Errorf("%w: contract in status %s cannot be sent", ErrValidation, contract.Status)
		}

		data, err := s.documents.Get(ctx, contract.ArtifactRef)
		if err != nil {
			return "", "", fmt.Errorf("failed to load contract artifact: %w", err)
		}
		if len(data) == 0 {
			return "", "", fmt.Errorf("%w: contract artifact is empty", ErrValidation)
		}

		envelopeID, err = s.signing.SubmitForSignature(ctx, data, signer, "Contract-"+id)
		if err != nil {
			return "", "", err
		}

		contract.EnvelopeID = envelopeID
		contract.Status = model.StatusSentForSignature
		contract.Metadata["sentAt"] = time.Now().Format(time.RFC3339)
		s.store.Save(contract)
		logger.Info(ctx, "contract sent for signature", "envelope_id", envelopeID)
	} else {
		logger.Info(ctx, "contract already submitted, re-requesting link", "envelope_id", envelopeID)
	}

	signingURL, err = s.signing.GetSigningLink(ctx, envelopeID, signer, s.returnURL)
	if err != nil {
		// Envelope id is retained; the caller can re-request a link
		// later without resubmitting.
		return envelopeID, "", err
	}

	return envelopeID, signingURL, nil
}

// Chat answers a question about the contract, lazily extracting and
// caching its text on first use
func (s *ContractService) Chat(ctx context.Context, id, question string) (string, error) {
	contract := s.store.Get(id)
	if contract == nil {
		return "", fmt.Errorf("%w: contract %s", ErrNotFound, id)
	}

	ctx = context.WithValue(ctx, logger.ContractIDKey, id)

	text := contract.Metadata[metaFullText]
	if text == "" {
		data, err := s.documents.Get(ctx, contract.ArtifactRef)
		if err != nil {
			return "", fmt.Errorf("failed to load contract artifact: %w", err)
		}
		text = s.ai.ExtractText(data)
		contract.Metadata[metaFullText] = text
		s.store.Save(contract)
	}

	return s.ai.Chat(ctx, id, question, text), nil
}

// MarkSignedByEnvelope advances the matching contract to SIGNED.
// Idempotent: a duplicate completion event for an already signed contract
// is a no-op. An unknown envelope id is logged and ignored; an unmatched
// notification is not actionable by the caller.
func (s *ContractService) MarkSignedByEnvelope(ctx context.Context, envelopeID string) {
	contract := s.store.GetByEnvelopeID(envelopeID)
	if contract == nil {
		logger.Warn(ctx, "no contract found for envelope", "envelope_id", envelopeID)
		return
	}

	if contract.Status == model.StatusSigned {
		logger.Info(ctx, "contract already signed, ignoring duplicate event",
			"contract_id", contract.ID, "envelope_id", envelopeID)
		return
	}

	contract.Status = model.StatusSigned
	contract.Metadata["signedAt"] = time.Now().Format(time.RFC3339)
	s.store.Save(contract)

	logger.Info(ctx, "contract marked as signed", "contract_id", contract.ID, "envelope_id", envelopeID)
}

// Get returns a contract by id
func (s *ContractService) Get(id string) *model.Contract {
	return s.store.Get(id)
}

// GetByEnvelopeID returns the contract submitted under the given envelope
func (s *ContractService) GetByEnvelopeID(envelopeID string) *model.Contract {
	return s.store.GetByEnvelopeID(envelopeID)
}

// List returns all contracts ordered by creation time
func (s *ContractService) List() []*model.Contract {
	return s.store.List()
}

// Archive removes the contract's artifact from storage and moves the
// contract to its terminal ARCHIVED state
func (s *ContractService) Archive(ctx context.Context, id string) error {
	contract := s.store.Get(id)
	if contract == nil {
		return fmt.Errorf("%w: contract %s", ErrNotFound, id)
	}

	ctx = context.WithValue(ctx, logger.ContractIDKey, id)

	if err := s.documents.Delete(ctx, contract.ArtifactRef); err != nil {
		logger.Warn(ctx, "failed to delete contract artifact", "artifact", contract.ArtifactRef, "error", err)
	}

	contract.Status = model.StatusArchived
	s.store.Save(contract)
	s.releaseSendLock(id)

	logger.Info(ctx, "contract archived")
	return nil
}
