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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Records    RecordsConfig    `mapstructure:"records"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Timeout string     `mapstructure:"timeout"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RecordsConfig 记录服务（采购历史/库存/请购单/采购单）配置
type RecordsConfig struct {
	BaseURL string `mapstructure:"base_url"` // 如 http://localhost:7777
	Timeout string `mapstructure:"timeout"`  // 外部调用硬上限，默认 10s
	DSN     string `mapstructure:"dsn"`      // recordsvc 自身的 sqlite 文件路径
}

// OracleConfig 生成式服务（意图分类、抽取、推荐）配置
type OracleConfig struct {
	Provider    string               `mapstructure:"provider"` // openai | qwen（OpenAI 兼容端点）
	Model       string               `mapstructure:"model"`
	APIKey      string               `mapstructure:"api_key"` // 支持 ${ENV_VAR} 形式
	BaseURL     string               `mapstructure:"base_url"`
	MaxTokens   int                  `mapstructure:"max_tokens"`
	Temperature float64              `mapstructure:"temperature"`
	RateLimit   OracleRateLimitConfig `mapstructure:"rate_limit"`
}

// OracleRateLimitConfig 生成式服务限流配置
type OracleRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// AgentConfig 对话 Agent 默认上下文
type AgentConfig struct {
	DefaultRequester  string `mapstructure:"default_requester"`  // 请购人缺省名
	DefaultDepartment string `mapstructure:"default_department"` // 请购部门缺省
	DefaultOfficer    string `mapstructure:"default_officer"`    // 采购专员缺省名
	OfficerDepartment string `mapstructure:"officer_department"` // 采购部门缺省
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	applyDefaults(&config)
	return &config, nil
}

// LoadAPIConfig 加载编排服务配置（configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}

// LoadRecordConfig 加载记录服务配置（configs/recordsvc.yaml）
func LoadRecordConfig() (*Config, error) {
	return LoadConfig("configs/recordsvc.yaml")
}

// replaceEnvVars 替换配置中 ${ENV_VAR} 形式的密钥
func replaceEnvVars(config *Config) {
	if strings.HasPrefix(config.Oracle.APIKey, "$") {
		envVar := strings.TrimPrefix(strings.TrimSuffix(config.Oracle.APIKey, "}"), "${")
		if val := os.Getenv(envVar); val != "" {
			config.Oracle.APIKey = val
		}
	}
	if config.Oracle.APIKey == "" {
		config.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// applyDefaults 填充与原系统一致的缺省值
func applyDefaults(config *Config) {
	if config.Records.BaseURL == "" {
		config.Records.BaseURL = "http://localhost:7777"
	}
	if config.Records.Timeout == "" {
		config.Records.Timeout = "10s"
	}
	if config.Oracle.Model == "" {
		config.Oracle.Model = "gpt-4o-mini"
	}
	if config.Oracle.MaxTokens == 0 {
		config.Oracle.MaxTokens = 1024
	}
	if config.Oracle.Temperature == 0 {
		config.Oracle.Temperature = 0.3
	}
	if config.Agent.DefaultRequester == "" {
		config.Agent.DefaultRequester = "系統使用者"
	}
	if config.Agent.DefaultDepartment == "" {
		config.Agent.DefaultDepartment = "IT部門"
	}
	if config.Agent.DefaultOfficer == "" {
		config.Agent.DefaultOfficer = "採購專員"
	}
	if config.Agent.OfficerDepartment == "" {
		config.Agent.OfficerDepartment = "採購部"
	}
}
