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

package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"procurement-platform/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
}

// NewRouter 创建路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: mw,
	}
}

// Build 创建 Hertz 服务并注册全部路由。opts 用于追加
// server 级配置（如链路追踪的 tracer 选项）。
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	serverOpts := append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(serverOpts...)

	h.Use(r.middleware.CORS())

	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)

	api.POST("/chat", r.handler.Chat)

	chat := api.Group("/chat")
	{
		chat.GET("/sessions", r.handler.ListSessions)
		chat.GET("/session/:id", r.handler.GetSession)
		chat.DELETE("/session/:id", r.handler.DeleteSession)
	}

	requisition := api.Group("/requisition")
	{
		requisition.POST("/chat", r.handler.RequisitionChat)
	}

	return h
}
