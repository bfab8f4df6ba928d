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
	"fmt"

	"golang.org/x/time/rate"
)

// LimitConfig 生成式服务限流配置
type LimitConfig struct {
	TokensPerMinute   int     // 每分钟 token 配额
	RequestsPerMinute float64 // 每分钟请求数
	MaxConcurrent     int     // 最大并发请求数
}

// RateLimiter 单 provider 的限流器：token budget + RPS + 并发控制
type RateLimiter struct {
	requestLimiter *rate.Limiter
	tokenLimiter   *rate.Limiter
	semaphore      chan struct{}
}

// NewRateLimiter 创建限流器；零值配置项对应的维度不限流
func NewRateLimiter(config LimitConfig) *RateLimiter {
	l := &RateLimiter{}

	if config.RequestsPerMinute > 0 {
		rps := config.RequestsPerMinute / 60.0
		burst := int(rps * 2) // burst = 2 秒的配额
		if burst < 1 {
			burst = 1
		}
		l.requestLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	if config.TokensPerMinute > 0 {
		tps := float64(config.TokensPerMinute) / 60.0
		burst := config.TokensPerMinute / 60 * 2
		if burst < 1 {
			burst = 1
		}
		l.tokenLimiter = rate.NewLimiter(rate.Limit(tps), burst)
	}

	if config.MaxConcurrent > 0 {
		l.semaphore = make(chan struct{}, config.MaxConcurrent)
	}

	return l
}

// Wait 等待获取执行许可（阻塞直到可以执行）
func (l *RateLimiter) Wait(ctx context.Context, estimatedTokens int) error {
	if l.requestLimiter != nil {
		if err := l.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}

	// 预扣 token 配额
	if l.tokenLimiter != nil && estimatedTokens > 0 {
		if err := l.tokenLimiter.WaitN(ctx, estimatedTokens); err != nil {
			return fmt.Errorf("token budget wait failed: %w", err)
		}
	}

	if l.semaphore != nil {
		select {
		case l.semaphore <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Release 释放并发 slot（调用完成后执行）
func (l *RateLimiter) Release() {
	if l.semaphore == nil {
		return
	}
	select {
	case <-l.semaphore:
	default:
	}
}
