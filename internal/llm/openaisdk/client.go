// Package openaisdk implements llm.Provider on top of the official OpenAI Go SDK.
package openaisdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

type Config struct {
	APIKey      string
	BaseURL     string        // optional, tests
	Model       string        // default gpt-4o-mini
	Temperature float64       // sent verbatim
	Timeout     time.Duration // default 30s
	HTTPClient  *http.Client  // optional, tests
}

type Client struct {
	model       string
	temperature float64
	client      openai.Client
	logger      *slog.Logger
}

// NewClient builds the SDK-backed provider. SDK retries are disabled; callers own retry.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &llm.ConfigurationError{Field: "OPENAI_API_KEY", Message: "api key is required"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      openai.NewClient(opts...),
		logger:      logger,
	}, nil
}

func (c *Client) Name() string { return "openai-sdk" }

func (c *Client) Send(ctx context.Context, req llm.Request) (string, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(c.temperature),
	}
	if req.Tool != nil {
		fn, err := functionDefinition(*req.Tool)
		if err != nil {
			return "", err
		}
		params.Tools = []openai.ChatCompletionToolUnionParam{openai.ChatCompletionFunctionTool(fn)}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		mapped := mapOpenAIError(err)
		c.logger.Error("llm.openaisdk.error",
			"error", mapped, "kind", llm.ErrorKind(mapped),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", mapped
	}
	if len(completion.Choices) == 0 {
		return "", &llm.DecodeError{Cause: errors.New("provider response has no choices")}
	}

	msg := completion.Choices[0].Message
	c.logger.Info("llm.openaisdk.ok",
		"model", completion.Model,
		"tool_calls", len(msg.ToolCalls),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if req.Tool == nil {
		if strings.TrimSpace(msg.Content) == "" {
			return "", &llm.DecodeError{Cause: errors.New("response message has no content")}
		}
		return msg.Content, nil
	}
	if len(msg.ToolCalls) == 0 {
		return "", &llm.NoToolCallError{Content: msg.Content}
	}
	return msg.ToolCalls[0].Function.Arguments, nil
}

// functionDefinition converts the translated tool into SDK params. Parameters round-trip
// through JSON into a map, so property order on the wire is the SDK's, not declaration order.
func functionDefinition(t llm.Tool) (openai.FunctionDefinitionParam, error) {
	b, err := json.Marshal(t.Function.Parameters)
	if err != nil {
		return openai.FunctionDefinitionParam{}, fmt.Errorf("marshal parameters: %w", err)
	}
	var params openai.FunctionParameters
	if err := json.Unmarshal(b, &params); err != nil {
		return openai.FunctionDefinitionParam{}, fmt.Errorf("unmarshal parameters: %w", err)
	}
	return openai.FunctionDefinitionParam{
		Name:        t.Function.Name,
		Description: openai.String(t.Function.Description),
		Parameters:  params,
	}, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.ProviderHTTPError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
	}
	return &llm.TransportError{Err: err}
}
