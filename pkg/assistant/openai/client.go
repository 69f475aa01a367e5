package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-chatbot-be/pkg/assistant"

	"github.com/cenkalti/backoff/v4"
	sdk "github.com/sashabaranov/go-openai"
)

const logModule = "ASSISTANT_GATEWAY"

// Logger is the subset of the application logger the client writes to.
type Logger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

type Config struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	MaxPollInterval time.Duration
}

// Client adapts the go-openai Assistants v2 API to assistant.Gateway.
type Client struct {
	cfg    Config
	api    *sdk.Client
	logger Logger
}

var _ assistant.Gateway = &Client{}

func NewClient(cfg Config, logger Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = cfg.PollInterval
	}

	sdkConfig := sdk.DefaultConfig(cfg.APIKey)
	sdkConfig.BaseURL = cfg.BaseURL
	sdkConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}

	return &Client{
		cfg:    cfg,
		api:    sdk.NewClientWithConfig(sdkConfig),
		logger: logger,
	}
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	start := time.Now()
	thread, err := c.api.CreateThread(ctx, sdk.ThreadRequest{})
	if err := c.observe("create thread", start, err); err != nil {
		return "", err
	}
	if thread.ID == "" {
		return "", fmt.Errorf("create thread: empty thread id")
	}
	return thread.ID, nil
}

func (c *Client) AppendMessage(ctx context.Context, threadID, role, text string) error {
	start := time.Now()
	_, err := c.api.CreateMessage(ctx, threadID, sdk.MessageRequest{
		Role:    role,
		Content: text,
	})
	return c.observe("append message", start, err)
}

func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	start := time.Now()
	run, err := c.api.CreateRun(ctx, threadID, sdk.RunRequest{AssistantID: assistantID})
	if err := c.observe("start run", start, err); err != nil {
		return nil, err
	}
	return toRun(run), nil
}

func (c *Client) getRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	start := time.Now()
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err := c.observe("retrieve run", start, err); err != nil {
		return nil, err
	}
	return toRun(run), nil
}

// AwaitRun polls with exponential backoff between PollInterval and
// MaxPollInterval. The deadline comes from ctx.
func (c *Client) AwaitRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.PollInterval
	b.MaxInterval = c.cfg.MaxPollInterval
	b.MaxElapsedTime = 0
	b.Reset()
	policy := backoff.WithContext(b, ctx)

	polls := 0
	for {
		run, err := c.getRun(ctx, threadID, runID)
		if err != nil {
			return nil, err
		}
		polls++
		if run.Status.Terminal() {
			c.logger.Info(logModule, "Run reached terminal status", map[string]interface{}{
				"thread_id": threadID,
				"run_id":    runID,
				"status":    string(run.Status),
				"polls":     polls,
			})
			return run, nil
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			return nil, fmt.Errorf("await run %s: %w", runID, ctx.Err())
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("await run %s: %w", runID, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) RunAndAwait(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	run, err := c.StartRun(ctx, threadID, assistantID)
	if err != nil {
		return nil, err
	}
	if run.Status.Terminal() {
		return run, nil
	}
	return c.AwaitRun(ctx, threadID, run.ID)
}

func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	start := time.Now()
	_, err := c.api.CancelRun(ctx, threadID, runID)
	return c.observe("cancel run", start, err)
}

func (c *Client) LatestMessage(ctx context.Context, threadID string) (*assistant.Message, error) {
	limit := 1
	order := "desc"

	start := time.Now()
	list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err := c.observe("list messages", start, err); err != nil {
		return nil, err
	}
	if len(list.Messages) == 0 {
		return nil, nil
	}

	m := list.Messages[0]
	var parts []string
	for _, content := range m.Content {
		if content.Type == "text" && content.Text != nil {
			parts = append(parts, content.Text.Value)
		}
	}

	msg := &assistant.Message{
		ID:   m.ID,
		Role: m.Role,
		Text: strings.Join(parts, "\n"),
	}
	if m.RunID != nil {
		msg.RunID = *m.RunID
	}
	return msg, nil
}

func (c *Client) CreateAssistant(ctx context.Context, spec assistant.AssistantSpec) (string, error) {
	req := sdk.AssistantRequest{
		Model:        spec.Model,
		Name:         &spec.Name,
		Instructions: &spec.Instructions,
	}
	if spec.Description != "" {
		req.Description = &spec.Description
	}
	for _, tool := range spec.Tools {
		req.Tools = append(req.Tools, sdk.AssistantTool{Type: sdk.AssistantToolType(tool)})
	}

	start := time.Now()
	created, err := c.api.CreateAssistant(ctx, req)
	if err := c.observe("create assistant", start, err); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("create assistant: empty assistant id")
	}
	return created.ID, nil
}

// observe logs one backend call and translates SDK errors.
func (c *Client) observe(op string, start time.Time, err error) error {
	details := map[string]interface{}{
		"op":          op,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err == nil {
		c.logger.Debug(logModule, "Request completed", details)
		return nil
	}

	err = translateError(err)
	details["error"] = err.Error()
	c.logger.Error(logModule, "Request failed", details)
	return fmt.Errorf("%s: %w", op, err)
}

func translateError(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		out := &assistant.APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Type:       apiErr.Type,
			Message:    apiErr.Message,
		}
		if apiErr.Code != nil {
			out.Code = fmt.Sprint(apiErr.Code)
		}
		return out
	}

	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		out := &assistant.APIError{StatusCode: reqErr.HTTPStatusCode}
		if reqErr.Err != nil {
			out.Message = reqErr.Err.Error()
		}
		return out
	}
	return err
}

func toRun(r sdk.Run) *assistant.Run {
	run := &assistant.Run{
		ID:          r.ID,
		ThreadID:    r.ThreadID,
		AssistantID: r.AssistantID,
		Status:      assistant.RunStatus(r.Status),
	}
	if r.LastError != nil {
		run.LastError = r.LastError.Message
	}
	if r.Usage.TotalTokens > 0 {
		run.Usage = &assistant.Usage{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
		}
	}
	return run
}
