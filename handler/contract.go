package handler

import (
	"errors"
	"net/http"

	"github.com/arshiyakhan02/contract-agent/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contracts *service.ContractService
}

func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// statusFromError maps workflow errors to HTTP status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAuthentication),
		errors.Is(err, service.ErrSubmission),
		errors.Is(err, service.ErrLinkUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type CreateContractRequest struct {
	Subject      service.Subject `json:"subject" binding:"required"`
	TemplateName string          `json:"template_name" binding:"required"`
}

// Create generates a filled contract from a template
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), req.Subject, req.TemplateName)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, contract)
}

// Analyze runs AI analysis over the contract
func (h *ContractHandler) Analyze(c *gin.Context) {
	id := c.Param("id")

	analysis, err := h.contracts.Analyze(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": id,
		"analysis":    analysis,
	})
}

// Send submits the contract to the signing provider and returns the
// envelope id plus, when available, the embedded-signing URL
func (h *ContractHandler) Send(c *gin.Context) {
	id := c.Param("id")

	envelopeID, signingURL, err := h.contracts.SendForSignature(c.Request.Context(), id)
	if err != nil {
		// A failed link fetch still reports the envelope so the
		// caller can re-request the link later.
		if envelopeID != "" {
			c.JSON(statusFromError(err), gin.H{
				"error":       err.Error(),
				"envelope_id": envelopeID,
			})
			return
		}
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"envelope_id": envelopeID,
		"signing_url": signingURL,
	})
}

type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Chat answers a question about the contract
func (h *ContractHandler) Chat(c *gin.Context) {
	id := c.Param("id")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question is required"})
		return
	}

	answer, err := h.contracts.Chat(c.Request.Context(), id, req.Question)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": id,
		"question":    req.Question,
		"answer":      answer,
	})
}

// Get returns a single contract
func (h *ContractHandler) Get(c *gin.Context) {
	id := c.Param("id")

	contract := h.contracts.Get(id)
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, contract)
}

// List returns all contracts without their metadata payloads
func (h *ContractHandler) List(c *gin.Context) {
	contracts := h.contracts.List()

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":            contract.ID,
			"subject_name":  contract.SubjectName,
			"subject_email": contract.SubjectEmail,
			"status":        contract.Status,
			"envelope_id":   contract.EnvelopeID,
			"created_at":    contract.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at":    contract.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Archive removes the contract's artifact and moves it to ARCHIVED
func (h *ContractHandler) Archive(c *gin.Context) {
	id := c.Param("id")

	if err := h.contracts.Archive(c.Request.Context(), id); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contract archived"})
}
