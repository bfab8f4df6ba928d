package oracle

import (
	"context"
)

// Client 生成式服务客户端接口。服务本身无状态：所有上下文随每次调用传入。
type Client interface {
	// Generate 生成文本
	Generate(prompt string, options GenerateOptions) (string, error)
	// GenerateWithContext 使用上下文生成文本
	GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error)
	// Chat 聊天
	Chat(messages []Message, options GenerateOptions) (string, error)
	// ChatWithContext 使用上下文聊天
	ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error)
	// Model 返回模型名称
	Model() string
	// Provider 返回提供商名称
	Provider() string
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop"`
}

// Message 聊天消息
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// NewClient 创建生成式服务客户端；openai 与 qwen 均走 OpenAI 兼容端点
func NewClient(provider, model, apiKey, baseURL string) (Client, error) {
	switch provider {
	case "openai", "qwen":
		return NewOpenAIClient(provider, model, apiKey, baseURL)
	default:
		return NewOpenAIClient("openai", model, apiKey, baseURL)
	}
}
