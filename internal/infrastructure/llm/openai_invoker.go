// Package llm sends single-turn prompts to an OpenAI-compatible chat
// completion endpoint.
package llm

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	ErrCircuitOpen   = errors.New("model circuit open")
	ErrEmptyResponse = errors.New("empty model response")
)

// Published under /api/debug/vars.
var (
	completions        = expvar.NewInt("llm_completions")
	completionFailures = expvar.NewInt("llm_completion_failures")
)

// Config configures the model endpoint and its failure handling.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	// Timeout bounds a single attempt; zero means no per-attempt limit.
	Timeout    time.Duration
	MaxRetries int

	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// OpenAIInvoker issues one chat completion per prompt and returns the first
// choice's content. Consecutive failures open a circuit breaker.
type OpenAIInvoker struct {
	client  *openai.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker[string]
	logger  *logrus.Logger
	backoff func(attempt int) time.Duration
}

func NewOpenAIInvoker(cfg Config, logger *logrus.Logger) *OpenAIInvoker {
	cfg.applyDefaults()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	inv := &OpenAIInvoker{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger,
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
	}
	inv.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "llm",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// A caller that went away says nothing about the model's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("model circuit state changed")
			}
		},
	})
	return inv
}

// Invoke sends prompt as a single user message.
func (i *OpenAIInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	out, err := i.breaker.Execute(func() (string, error) {
		return i.invokeWithRetry(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return out, err
}

// State reports the breaker state for diagnostics.
func (i *OpenAIInvoker) State() string {
	return i.breaker.State().String()
}

func (i *OpenAIInvoker) invokeWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < i.cfg.MaxRetries; attempt++ {
		out, err := i.complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == i.cfg.MaxRetries-1 {
			break
		}
		wait := i.backoff(attempt)
		if i.logger != nil {
			i.logger.WithError(err).WithFields(logrus.Fields{"attempt": attempt + 1, "wait": wait.String()}).Debug("model request failed, retrying")
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (i *OpenAIInvoker) complete(ctx context.Context, prompt string) (string, error) {
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	completions.Add(1)
	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       i.cfg.Model,
		Temperature: i.cfg.Temperature,
		MaxTokens:   i.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		completionFailures.Add(1)
		return "", err
	}
	if len(resp.Choices) == 0 {
		completionFailures.Add(1)
		return "", ErrEmptyResponse
	}
	if i.logger != nil {
		i.logger.WithFields(logrus.Fields{
			"model":      i.cfg.Model,
			"latency_ms": time.Since(start).Milliseconds(),
			"tokens":     resp.Usage.TotalTokens,
		}).Debug("model completion")
	}
	return resp.Choices[0].Message.Content, nil
}
