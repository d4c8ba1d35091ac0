package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/arshiyakhan02/contract-agent/config"
)

func newAITestServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "quota exceeded"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]string{{"text": reply}},
					},
				},
			},
		})
	}))
}

func newTestAIService(url string) *AIService {
	return NewAIService(&config.AIConfig{
		APIURL:         url,
		APIKey:         "test-key",
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

const longContractText = `This agreement is made between the provider and the client
for the delivery of services. Payment terms: 30 days net. Termination requires
60 days written notice by either party.`

func TestAIServiceAnalyze(t *testing.T) {
	reply := "```json\n" + `{"summary":"Service agreement with standard terms","key_clauses":[{"title":"Payment","explanation":"30 days net","risk_level":"Low"}]}` + "\n```"
	server := newAITestServer(t, reply, http.StatusOK)
	defer server.Close()

	svc := newTestAIService(server.URL)

	analysis := svc.Analyze(context.Background(), longContractText)
	if analysis.Degraded {
		t.Fatalf("Expected successful analysis, got degraded: %+v", analysis)
	}
	if analysis.Summary != "Service agreement with standard terms" {
		t.Errorf("Unexpected summary: %s", analysis.Summary)
	}
	if len(analysis.KeyClauses) != 1 || analysis.KeyClauses[0].Title != "Payment" {
		t.Errorf("Unexpected key clauses: %+v", analysis.KeyClauses)
	}
}

func TestAIServiceAnalyzeDegradesOnAPIError(t *testing.T) {
	server := newAITestServer(t, "", http.StatusTooManyRequests)
	defer server.Close()

	svc := newTestAIService(server.URL)

	analysis := svc.Analyze(context.Background(), longContractText)
	if !analysis.Degraded {
		t.Fatal("Expected degraded analysis on API error")
	}
	if analysis.Summary != "AI analysis failed." {
		t.Errorf("Unexpected degraded summary: %s", analysis.Summary)
	}
	if len(analysis.KeyClauses) != 1 || !strings.Contains(analysis.KeyClauses[0].Explanation, "quota exceeded") {
		t.Errorf("Expected failure reason in degraded payload, got %+v", analysis.KeyClauses)
	}
}

func TestAIServiceAnalyzeDegradesOnShortText(t *testing.T) {
	svc := newTestAIService("http://unused.invalid")

	analysis := svc.Analyze(context.Background(), "too short")
	if !analysis.Degraded {
		t.Fatal("Expected degraded analysis for short text")
	}
}

func TestAIServiceAnalyzeDegradesOnBadJSON(t *testing.T) {
	server := newAITestServer(t, "Sorry, I cannot analyze this contract.", http.StatusOK)
	defer server.Close()

	svc := newTestAIService(server.URL)

	analysis := svc.Analyze(context.Background(), longContractText)
	if !analysis.Degraded {
		t.Fatal("Expected degraded analysis for unparseable reply")
	}
}

func TestAIServiceChat(t *testing.T) {
	server := newAITestServer(t, "- The payment term is 30 days net", http.StatusOK)
	defer server.Close()

	svc := newTestAIService(server.URL)

	answer := svc.Chat(context.Background(), "session-1", "What are the payment terms?", longContractText)
	if answer != "- The payment term is 30 days net" {
		t.Errorf("Unexpected answer: %s", answer)
	}
}

func TestAIServiceChatDegradesOnError(t *testing.T) {
	server := newAITestServer(t, "", http.StatusInternalServerError)
	defer server.Close()

	svc := newTestAIService(server.URL)

	answer := svc.Chat(context.Background(), "session-1", "Hello?", longContractText)
	if !strings.Contains(answer, "trouble connecting") {
		t.Errorf("Expected degraded chat answer, got %s", answer)
	}
}

func TestAIServiceExtractText(t *testing.T) {
	svc := newTestAIService("http://unused.invalid")

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain text passthrough", []byte("plain contract text"), "plain contract text"},
		{"empty input", nil, ""},
		{"binary garbage", []byte{0xff, 0xfe, 0x00, 0x01}, ""},
		{"corrupt pdf", []byte("%PDF-1.7 not really a pdf"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ExtractText(tt.data); got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		s    string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"cut lands mid-rune", "héllo", 2, "h"},
		{"cut at rune boundary", "héllo", 3, "hé"},
		{"multi-byte only", "ééé", 3, "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.s, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestParseAnalysisJSONSurroundingProse(t *testing.T) {
	text := `Here is the analysis you asked for:
{"summary":"ok","key_clauses":[]}
Let me know if you need more.`

	analysis, err := parseAnalysisJSON(text)
	if err != nil {
		t.Fatalf("Expected JSON extracted from prose, got %v", err)
	}
	if analysis.Summary != "ok" {
		t.Errorf("Unexpected summary: %s", analysis.Summary)
	}
}
