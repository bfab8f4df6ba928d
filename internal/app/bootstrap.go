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

// Package app 统一装配：配置、日志、生成式客户端与记录服务客户端。
package app

import (
	"fmt"
	"time"

	"procurement-platform/internal/oracle"
	"procurement-platform/internal/records"
	"procurement-platform/pkg/config"
	"procurement-platform/pkg/log"
)

// Bootstrap 统一初始化：供 api 进程复用，避免在 cmd 内写装配逻辑
type Bootstrap struct {
	Config  *config.Config
	Logger  *log.Logger
	Oracle  *oracle.Oracle
	Records *records.Client
}

// NewBootstrap 根据配置创建 Bootstrap（日志 → 生成式客户端 → 记录服务客户端）
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("缺少配置")
	}

	client, err := oracle.NewClient(cfg.Oracle.Provider, cfg.Oracle.Model, cfg.Oracle.APIKey, cfg.Oracle.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("初始化生成式客户端failed: %w", err)
	}

	// 限流任一维度配置即包一层限流客户端
	rl := cfg.Oracle.RateLimit
	if rl.TokensPerMinute > 0 || rl.RequestsPerMinute > 0 || rl.MaxConcurrent > 0 {
		limiter := oracle.NewRateLimiter(oracle.LimitConfig{
			TokensPerMinute:   rl.TokensPerMinute,
			RequestsPerMinute: rl.RequestsPerMinute,
			MaxConcurrent:     rl.MaxConcurrent,
		})
		client = oracle.NewRateLimitedClient(client, limiter)
		logger.Info("生成式服务限流已启用",
			"tokens_per_minute", rl.TokensPerMinute,
			"requests_per_minute", rl.RequestsPerMinute,
			"max_concurrent", rl.MaxConcurrent)
	}

	timeout := parseDuration(cfg.Records.Timeout, 10*time.Second)
	recordClient := records.NewClient(cfg.Records.BaseURL, timeout)

	return &Bootstrap{
		Config:  cfg,
		Logger:  logger,
		Oracle:  oracle.New(client, cfg.Oracle.MaxTokens, cfg.Oracle.Temperature),
		Records: recordClient,
	}, nil
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
