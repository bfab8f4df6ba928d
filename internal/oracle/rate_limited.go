// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oracle

import (
	"context"
	"time"

	"procurement-platform/pkg/metrics"
)

// RateLimitedClient 包装任意 Client，在真实调用前执行限流控制。
type RateLimitedClient struct {
	inner       Client
	rateLimiter *RateLimiter
}

// NewRateLimitedClient 创建带限流的客户端。rateLimiter 为 nil 时退化为直接调用。
func NewRateLimitedClient(inner Client, rateLimiter *RateLimiter) *RateLimitedClient {
	return &RateLimitedClient{inner: inner, rateLimiter: rateLimiter}
}

// Generate 实现 Client.Generate。
func (c *RateLimitedClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

// GenerateWithContext 实现 Client.GenerateWithContext，调用前执行限流。
func (c *RateLimitedClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	if c.rateLimiter != nil {
		if err := c.wait(ctx, len(prompt), options.MaxTokens); err != nil {
			return "", err
		}
		defer c.rateLimiter.Release()
	}
	return c.inner.GenerateWithContext(ctx, prompt, options)
}

// Chat 实现 Client.Chat。
func (c *RateLimitedClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 实现 Client.ChatWithContext，调用前执行限流。
func (c *RateLimitedClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	if c.rateLimiter != nil {
		promptLen := 0
		for _, m := range messages {
			promptLen += len(m.Content)
		}
		if err := c.wait(ctx, promptLen, options.MaxTokens); err != nil {
			return "", err
		}
		defer c.rateLimiter.Release()
	}
	return c.inner.ChatWithContext(ctx, messages, options)
}

// Model 返回底层 Client 的模型名称。
func (c *RateLimitedClient) Model() string { return c.inner.Model() }

// Provider 返回底层 Client 的提供商名称。
func (c *RateLimitedClient) Provider() string { return c.inner.Provider() }

func (c *RateLimitedClient) wait(ctx context.Context, promptLen, maxTokens int) error {
	start := time.Now()
	if err := c.rateLimiter.Wait(ctx, estimateTokens(promptLen, maxTokens)); err != nil {
		return err
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		metrics.RateLimitWaitSeconds.WithLabelValues("oracle", c.inner.Provider()).Observe(waited.Seconds())
	}
	return nil
}

// estimateTokens 粗略估算请求的 token 数（4 字符 ≈ 1 token）
func estimateTokens(promptLen, maxTokens int) int {
	estimated := promptLen / 4
	if maxTokens > 0 {
		estimated += maxTokens
	}
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
