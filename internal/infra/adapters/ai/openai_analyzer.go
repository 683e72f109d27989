package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"conversation-insights/internal/config"
	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Analyzer = (*OpenAIAnalyzer)(nil)

const systemPrompt = `Analyze the provided text and return a JSON response with exactly these fields:
{
  "summary": "1-2 sentence summary of the text",
  "sentiment": "positive, negative, or neutral",
  "topics": ["topic1", "topic2", ...],
  "tokens_used": estimated number of tokens used
}

Return ONLY valid JSON, no additional text.`

const fallbackSummaryLimit = 200

// OpenAIAnalyzer calls an OpenAI-compatible chat completions endpoint.
// Transport/timeout/HTTP failures are retried with exponential backoff and
// jitter; 429 honors Retry-After. A missing API key is a configuration
// error and is never retried.
type OpenAIAnalyzer struct {
	apiKey      string
	base        string
	model       string
	costPer1K   float64
	maxRetries  int
	backoffBase time.Duration
	maxJitter   time.Duration
	client      *http.Client
	log         *zerolog.Logger
}

func NewOpenAIAnalyzer(cfg config.AnalysisConfig, logger *zerolog.Logger) *OpenAIAnalyzer {
	l := logger.With().Str("component", "OpenAIAnalyzer").Logger()
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &OpenAIAnalyzer{
		apiKey:      cfg.APIKey,
		base:        strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		costPer1K:   cfg.CostPer1K,
		maxRetries:  maxRetries,
		backoffBase: cfg.BackoffBase,
		maxJitter:   cfg.MaxJitter,
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
		log:         &l,
	}
}

func (o *OpenAIAnalyzer) Name() string { return "real" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// analysisPayload is the strict-JSON body the system prompt asks for.
type analysisPayload struct {
	Summary    string   `json:"summary"`
	Sentiment  string   `json:"sentiment"`
	Topics     []string `json:"topics"`
	TokensUsed int      `json:"tokens_used"`
}

func (o *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (*adapter.Analysis, error) {
	if o.apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		resp, err := o.post(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			o.log.Warn().Err(err).Int("attempt", attempt).Int("max", o.maxRetries).
				Msg("analysis transport error")
		} else if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp)
			if wait <= 0 {
				wait = Backoff(attempt, o.backoffBase)
			}
			wait += Jitter(o.maxJitter)
			resp.Body.Close()
			lastErr = fmt.Errorf("analysis http 429")
			o.log.Warn().Int("attempt", attempt).Dur("wait", wait).
				Msg("analysis rate limited, honoring retry delay")
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		} else if resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("analysis http %d", resp.StatusCode)
			o.log.Error().Int("status", resp.StatusCode).Int("attempt", attempt).
				Msg("analysis http error")
		} else {
			out, err := o.decode(resp, text, start)
			if err != nil {
				lastErr = err
			} else {
				o.log.Info().Int("attempt", attempt).Dur("latency", out.Latency).
					Int("tokens", out.EstimatedTokens).Msg("analysis succeeded")
				return out, nil
			}
		}

		if attempt < o.maxRetries {
			wait := Backoff(attempt, o.backoffBase) + Jitter(o.maxJitter)
			if wait < 0 {
				wait = 0
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("analysis failed after %d attempts: %w", o.maxRetries, lastErr)
}

func (o *OpenAIAnalyzer) post(ctx context.Context, text string) (*http.Response, error) {
	reqBody := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		MaxTokens:   500,
	}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	return o.client.Do(req)
}

func (o *OpenAIAnalyzer) decode(resp *http.Response, text string, start time.Time) (*adapter.Analysis, error) {
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	var content string
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			content = c.Message.Content
			break
		}
	}
	if content == "" {
		return nil, fmt.Errorf("analysis response had no choice content")
	}

	var analysis analysisPayload
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		o.log.Warn().Msg("analysis content was not valid JSON, using fallback parser")
		analysis = parseFallback(content)
	}
	if analysis.Summary == "" {
		analysis.Summary = truncate(text, fallbackSummaryLimit)
	}

	tokens := payload.Usage.CompletionTokens
	if analysis.TokensUsed > 0 {
		tokens = analysis.TokensUsed
	}
	if tokens <= 0 {
		tokens = estimateTokens(o.model, text)
	}

	return &adapter.Analysis{
		Summary:         analysis.Summary,
		Sentiment:       strings.ToLower(strings.TrimSpace(analysis.Sentiment)),
		Topics:          analysis.Topics,
		EstimatedTokens: tokens,
		EstimatedCost:   float64(tokens) / 1000.0 * o.costPer1K,
		Latency:         time.Since(start),
		Model:           o.model,
	}, nil
}

// parseFallback recovers a best-effort result when the model ignored the
// strict-JSON instruction. Never fails.
func parseFallback(content string) analysisPayload {
	out := analysisPayload{
		Summary:   truncate(content, fallbackSummaryLimit),
		Sentiment: "neutral",
		Topics:    []string{},
	}
	lc := strings.ToLower(content)
	if strings.Contains(lc, "positive") || strings.Contains(lc, "good") {
		out.Sentiment = "positive"
	} else if strings.Contains(lc, "negative") || strings.Contains(lc, "bad") {
		out.Sentiment = "negative"
	}
	return out
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
