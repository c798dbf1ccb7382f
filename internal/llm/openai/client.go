package openai

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []llm.Tool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
}

func (c *Client) Name() string { return "openai" }

// Send implements llm.Provider with a single POST to /chat/completions. There is no retry.
func (c *Client) Send(ctx context.Context, req llm.Request) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: c.temperature,
	}
	if req.Tool != nil {
		body.Tools = []llm.Tool{*req.Tool}
		body.ToolChoice = "auto"
	}

	c.logger.Info("llm.openai.send",
		"req_id", rid,
		"model", c.model,
		"temp", c.temperature,
		"tool", req.Tool != nil,
		"user_len", len(req.User),
	)

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	raw, err := llm.SendJSON(ctx, c.http, c.baseURL+"/chat/completions", body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.openai.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var out string
	if req.Tool != nil {
		out, err = llm.ToolArguments(raw)
	} else {
		out, err = llm.MessageContent(raw)
	}
	if err != nil {
		c.logger.Error("llm.openai.response_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.logger.Info("llm.openai.ok",
		"req_id", rid,
		"arguments_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
