package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arshiyakhan02/contract-agent/config"
	"github.com/arshiyakhan02/contract-agent/model"
	"github.com/arshiyakhan02/contract-agent/pkg/logger"
	"github.com/ledongthuc/pdf"
)

// Analyzer turns document bytes into text and answers questions about it.
// Analysis and chat are best-effort: failures degrade to placeholder
// results instead of propagating, so the contract workflow never blocks
// on an AI outage.
type Analyzer interface {
	ExtractText(data []byte) string
	Analyze(ctx context.Context, contractText string) *model.Analysis
	Chat(ctx context.Context, sessionID, question, contractText string) string
}

// AIService calls a Gemini-compatible generateContent endpoint
type AIService struct {
	config     *config.AIConfig
	httpClient *http.Client
}

func NewAIService(cfg *config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// generateRequest is the generateContent request body
type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Role  string         `json:"role"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

// generateResponse is the generateContent response body
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractText extracts plain text from document bytes. PDF documents are
// parsed; anything else that looks like UTF-8 text is returned as-is.
// Extraction is best-effort and returns an empty string on failure.
func (s *AIService) ExtractText(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		text, err := extractPDFText(data)
		if err != nil {
			logger.Warn(context.Background(), "pdf text extraction failed", "error", err)
			return ""
		}
		return text
	}

	if utf8.Valid(data) {
		return string(data)
	}

	return ""
}

func extractPDFText(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	return buf.String(), nil
}

const analyzePromptFormat = `You are a legal AI assistant.
Analyze the contract and return ONLY valid JSON.

{
  "summary": "Short summary",
  "key_clauses": [
    { "title": "Clause name", "explanation": "Simple explanation", "risk_level": "Low | Medium | High" }
  ]
}

Contract:
%s`

// Analyze produces a structured analysis of the contract text. On any
// failure it returns a degraded placeholder carrying the failure reason.
func (s *AIService) Analyze(ctx context.Context, contractText string) *model.Analysis {
	if len(strings.TrimSpace(contractText)) < 50 {
		return degradedAnalysis("contract text is empty or too short")
	}

	prompt := fmt.Sprintf(analyzePromptFormat, truncate(contractText, 8000))

	text, err := s.generate(ctx, prompt)
	if err != nil {
		logger.Error(ctx, "contract analysis failed", "error", err)
		return degradedAnalysis(err.Error())
	}

	analysis, err := parseAnalysisJSON(text)
	if err != nil {
		logger.Error(ctx, "contract analysis returned unparseable JSON", "error", err)
		return degradedAnalysis(err.Error())
	}

	return analysis
}

const chatPromptFormat = `You are a smart AI assistant inside a contract platform.

Rules:
1. If the user's message is a greeting or small talk, reply in one or two normal sentences.
2. If the user's message is about the contract, use the contract text.
3. Format contract-related answers ONLY using simple bullet points.
4. Do NOT use markdown, headings, or special formatting.
5. Use plain text only.

Contract:
%s

User message:
%s`

// Chat answers a question about the contract text. Failures degrade to an
// apologetic answer carrying the error so the endpoint never fails.
func (s *AIService) Chat(ctx context.Context, sessionID, question, contractText string) string {
	prompt := fmt.Sprintf(chatPromptFormat, truncate(contractText, 8000), question)

	answer, err := s.generate(ctx, prompt)
	if err != nil {
		logger.Error(ctx, "contract chat failed", "session_id", sessionID, "error", err)
		return fmt.Sprintf("I'm having trouble connecting to my brain right now. (Error: %s)", err)
	}

	return answer
}

// generate sends a single-turn prompt to the generateContent endpoint and
// returns the first candidate's text
func (s *AIService) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{
				Role:  "user",
				Parts: []generatePart{{Text: prompt}},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.config.APIURL, s.config.Model, s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Error.Message != "" {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// parseAnalysisJSON pulls the JSON object out of the model's reply, which
// may be wrapped in code fences or surrounding prose
func parseAnalysisJSON(text string) (*model.Analysis, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in analysis reply")
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("invalid analysis JSON: %w", err)
	}

	return &analysis, nil
}

func degradedAnalysis(reason string) *model.Analysis {
	return &model.Analysis{
		Summary: "AI analysis failed.",
		KeyClauses: []model.KeyClause{
			{
				Title:       "Error",
				Explanation: reason,
				RiskLevel:   "Unknown",
			},
		},
		Degraded: true,
	}
}

// truncate caps s at max bytes without splitting a multi-byte rune
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
