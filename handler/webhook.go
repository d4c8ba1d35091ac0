package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arshiyakhan02/contract-agent/config"
	"github.com/arshiyakhan02/contract-agent/pkg/logger"
	"github.com/arshiyakhan02/contract-agent/service"
	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20 // 1MB

// WebhookHandler reconciles out-of-band events into contract state and
// hosts the automation entry points
type WebhookHandler struct {
	contracts  *service.ContractService
	hmacSecret string
	appBaseURL string
}

func NewWebhookHandler(contracts *service.ContractService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		contracts:  contracts,
		hmacSecret: cfg.Webhook.HMACSecret,
		appBaseURL: cfg.Server.AppBaseURL,
	}
}

type InitContractRequest struct {
	Subject      service.Subject `json:"subject"`
	TemplateName string          `json:"template_name"`
}

// InitContract starts a new contract workflow from a CRM/automation
// trigger: create plus best-effort auto-analysis in one call
func (h *WebhookHandler) InitContract(c *gin.Context) {
	var req InitContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), req.Subject, req.TemplateName)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	// Analysis is best-effort; a failure must not fail the trigger
	if _, err := h.contracts.Analyze(c.Request.Context(), contract.ID); err != nil {
		logger.Error(c.Request.Context(), "auto-analysis failed", "contract_id", contract.ID, "error", err)
	}

	contract = h.contracts.Get(contract.ID)
	c.JSON(http.StatusCreated, gin.H{
		"contract_id": contract.ID,
		"status":      contract.Status,
		"analysis":    contract.Analysis,
	})
}

// SigningEvent is the completion notification from the signing provider
type SigningEvent struct {
	EnvelopeID string `json:"envelopeId"`
	Status     string `json:"status"`
}

// completion status sent by the provider when all recipients have signed
const eventStatusCompleted = "completed"

// HandleSigningEvent applies a provider notification to local state.
// Unknown envelope ids and non-completion statuses are acknowledged and
// ignored; duplicate completions are idempotent no-ops. The provider is
// always sent a success so it does not retry a permanently unmatchable
// event; only transport/parse failures are surfaced.
func (h *WebhookHandler) HandleSigningEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if !h.verifySignature(body, c.GetHeader("X-DocuSign-Signature-1")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event SigningEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	logger.Info(c.Request.Context(), "signing event received",
		"envelope_id", event.EnvelopeID, "status", event.Status)

	if event.Status == eventStatusCompleted && event.EnvelopeID != "" {
		h.contracts.MarkSignedByEnvelope(c.Request.Context(), event.EnvelopeID)
	}

	c.String(http.StatusOK, "OK")
}

// verifySignature checks the provider's HMAC-SHA256 body signature.
// An empty configured secret disables the check.
func (h *WebhookHandler) verifySignature(body []byte, header string) bool {
	if h.hmacSecret == "" {
		return true
	}
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.hmacSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(header))
}

// ReturnURL renders the page shown after the signer completes the
// embedded-signing flow
func (h *WebhookHandler) ReturnURL(c *gin.Context) {
	page := fmt.Sprintf(returnPage, h.appBaseURL)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

const returnPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<title>Signature Completed</title>
<style>
  body { font-family: Arial, sans-serif; background: #f4f6f8; }
  .overlay { position: fixed; inset: 0; background: rgba(0,0,0,0.4);
             display: flex; align-items: center; justify-content: center; }
  .modal { background: #fff; padding: 30px; border-radius: 8px; width: 420px;
           text-align: center; box-shadow: 0 10px 25px rgba(0,0,0,0.2); }
  h2 { margin: 10px 0; }
  p { color: #555; }
  button { background: #28a745; color: #fff; border: none; padding: 10px 20px;
           border-radius: 5px; cursor: pointer; }
</style>
</head>
<body>
<div class="overlay">
  <div class="modal">
    <h2>Signature Completed</h2>
    <p>Your document has been signed successfully.</p>
    <button onclick="closeAndRedirect()">Close</button>
  </div>
</div>
<script>
  function closeAndRedirect() {
    if (window.opener) {
      window.opener.postMessage({ type: 'SIGNING_COMPLETED' }, '*');
    }
    window.location.href = '%s/form';
  }
  setTimeout(closeAndRedirect, 4000);
</script>
</body>
</html>
`
