package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/model"
)

// LLMClient talks to an OpenAI-compatible chat-completions API. It serves as
// both the question provider and the scoring authority for interview
// sessions.
type LLMClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     zerolog.Logger
}

// NewLLMClient creates a provider client from configuration.
func NewLLMClient(cfg *config.Config, log zerolog.Logger) *LLMClient {
	return &LLMClient{
		baseURL: strings.TrimRight(cfg.LLMBaseURL, "/"),
		apiKey:  cfg.LLMAPIKey,
		model:   cfg.LLMModel,
		client:  &http.Client{Timeout: cfg.LLMTimeout},
		log:     log.With().Str("component", "llm_provider").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

// complete performs one chat-completions round trip and returns the reply
// text.
func (c *LLMClient) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call llm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode llm response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm returned status %d with no choices", resp.StatusCode)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// NextQuestion generates one interview question of the requested tier,
// steering the model away from the questions already asked.
func (c *LLMClient) NextQuestion(ctx context.Context, candidateID int, difficulty model.Difficulty, previous []string) (*model.Question, error) {
	system := "You are a technical interviewer for a full-stack developer position. " +
		"Reply with exactly one interview question and nothing else."

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s level technical interview question about React/Node.js development.\n", difficulty)
	if len(previous) > 0 {
		b.WriteString("Previous questions asked:\n")
		for _, q := range previous {
			b.WriteString("- " + q + "\n")
		}
		b.WriteString("The new question must be different from all of the above.\n")
	}

	text, err := c.complete(ctx, system, b.String())
	if err != nil {
		return nil, err
	}
	if text == "" {
		// Treated as provider exhaustion by the engine.
		return nil, nil
	}

	c.log.Debug().Int("candidate_id", candidateID).Str("difficulty", string(difficulty)).Msg("Question generated")
	return &model.Question{
		ID:         uuid.New(),
		Text:       text,
		Difficulty: difficulty,
		TimeBudget: difficulty.TimeBudget(),
	}, nil
}

// ScoreSession asks the model for an overall score and summary of the
// completed transcript.
func (c *LLMClient) ScoreSession(ctx context.Context, candidateID int, answers []model.Answer) (model.Score, error) {
	system := "You are an interview evaluator. Reply with a line \"Score: <0-100>\" " +
		"followed by a concise summary of the candidate's performance."

	var b strings.Builder
	b.WriteString("Evaluate the following technical interview transcript.\n\n")
	for i, a := range answers {
		fmt.Fprintf(&b, "Q%d (%s): %s\n", i+1, a.Difficulty, a.QuestionText)
		if a.Forced {
			fmt.Fprintf(&b, "A%d: (no answer — time expired)\n\n", i+1)
		} else {
			fmt.Fprintf(&b, "A%d: %s\n\n", i+1, a.Text)
		}
	}
	b.WriteString("Provide the overall score and a summary covering strengths, weaknesses and a hiring recommendation.")

	reply, err := c.complete(ctx, system, b.String())
	if err != nil {
		return model.Score{}, err
	}

	score, summary, err := parseScoreReply(reply)
	if err != nil {
		return model.Score{}, err
	}
	c.log.Debug().Int("candidate_id", candidateID).Int("score", score).Msg("Session scored")
	return model.Score{Value: score, Summary: summary}, nil
}

// parseScoreReply extracts the numeric score from the first "Score:" line
// and returns the remaining text as the summary.
func parseScoreReply(reply string) (int, string, error) {
	lines := strings.Split(reply, "\n")
	score := -1
	var summary []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if score < 0 {
			if rest, ok := strings.CutPrefix(trimmed, "Score:"); ok {
				rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "/100"))
				n, err := strconv.Atoi(rest)
				if err == nil && n >= 0 && n <= 100 {
					score = n
					continue
				}
			}
		}
		if trimmed != "" {
			summary = append(summary, trimmed)
		}
	}
	if score < 0 {
		return 0, "", fmt.Errorf("malformed scoring reply: no score line")
	}
	return score, strings.Join(summary, "\n"), nil
}
