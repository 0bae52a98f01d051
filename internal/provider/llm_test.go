package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/model"
)

func TestParseScoreReply(t *testing.T) {
	cases := []struct {
		name    string
		reply   string
		score   int
		wantErr bool
	}{
		{name: "plain", reply: "Score: 85\nStrong answers overall.", score: 85},
		{name: "with denominator", reply: "Score: 70/100\nDecent but shallow.", score: 70},
		{name: "score mid-reply", reply: "Evaluation follows.\nScore: 40\nWeak on fundamentals.", score: 40},
		{name: "no score line", reply: "The candidate did well.", wantErr: true},
		{name: "out of range", reply: "Score: 180\nnope", wantErr: true},
		{name: "zero", reply: "Score: 0\nNo usable answers.", score: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, summary, err := parseScoreReply(tc.reply)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got score=%d", score)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if score != tc.score {
				t.Errorf("score = %d, want %d", score, tc.score)
			}
			if summary == "" {
				t.Error("summary is empty")
			}
		})
	}
}

func llmTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: reply}}},
		})
	}))
}

func testClient(t *testing.T, baseURL string) *LLMClient {
	t.Helper()
	return NewLLMClient(&config.Config{
		LLMBaseURL: baseURL,
		LLMAPIKey:  "test-key",
		LLMModel:   "test-model",
		LLMTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestNextQuestionBuildsTieredQuestion(t *testing.T) {
	srv := llmTestServer(t, "  Explain the React reconciliation algorithm.  ")
	defer srv.Close()

	c := testClient(t, srv.URL)
	q, err := c.NextQuestion(context.Background(), 1, model.DifficultyMedium, []string{"What is JSX?"})
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if q == nil {
		t.Fatal("expected a question")
	}
	if q.Text != "Explain the React reconciliation algorithm." {
		t.Errorf("text not trimmed: %q", q.Text)
	}
	if q.Difficulty != model.DifficultyMedium || q.TimeBudget != 60 {
		t.Errorf("tier/budget mismatch: %s/%d", q.Difficulty, q.TimeBudget)
	}
}

func TestNextQuestionEmptyReplyIsExhaustion(t *testing.T) {
	srv := llmTestServer(t, "")
	defer srv.Close()

	c := testClient(t, srv.URL)
	q, err := c.NextQuestion(context.Background(), 1, model.DifficultyEasy, nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if q != nil {
		t.Errorf("empty reply should signal exhaustion, got %+v", q)
	}
}

func TestScoreSessionParsesReply(t *testing.T) {
	srv := llmTestServer(t, "Score: 77\nSolid React knowledge, weaker on Node internals.")
	defer srv.Close()

	c := testClient(t, srv.URL)
	score, err := c.ScoreSession(context.Background(), 1, []model.Answer{
		{QuestionText: "What is JSX?", Text: "A syntax extension", Difficulty: model.DifficultyEasy},
		{QuestionText: "Explain the event loop", Forced: true, Difficulty: model.DifficultyMedium},
	})
	if err != nil {
		t.Fatalf("score session: %v", err)
	}
	if score.Value != 77 {
		t.Errorf("score = %d, want 77", score.Value)
	}
	if score.Summary == "" {
		t.Error("summary is empty")
	}
}

func TestScoreSessionTransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.ScoreSession(context.Background(), 1, nil); err == nil {
		t.Fatal("expected error from failing upstream")
	}
}
