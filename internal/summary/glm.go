// Package summary generates timeline summaries for transcribed items via
// the Zhipu GLM chat API.
package summary

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Generator is the text-generation capability: given a prompt, return model
// text or failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GLMClient talks to the Zhipu GLM chat-completions endpoint.
type GLMClient struct {
	client    *resty.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

type glmRequest struct {
	Model       string       `json:"model"`
	Messages    []glmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type glmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type glmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "你是一个专业的视频内容分析助手。你的任务是分析视频字幕，生成带时间轴的内容摘要。请用中文回复。"

// NewGLMClient builds a client. The API key is required configuration with
// no fallback; callers validate it before constructing the client.
func NewGLMClient(baseURL, apiKey, model string, maxTokens int, timeout time.Duration) *GLMClient {
	return &GLMClient{
		client:    resty.New().SetTimeout(timeout),
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (g *GLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := glmRequest{
		Model: g.model,
		Messages: []glmMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   g.maxTokens,
	}

	var resp glmResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(g.apiKey).
		SetBody(req).
		SetResult(&resp).
		Post(g.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if httpResp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d from GLM API", httpResp.StatusCode())
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content in response")
	}

	return resp.Choices[0].Message.Content, nil
}
