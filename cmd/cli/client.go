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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("PROCUREMENT_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
}

// chatResponse 编排服务的对话应答
type chatResponse struct {
	Response          string `json:"response"`
	SessionID         string `json:"session_id"`
	ConversationState string `json:"conversation_state"`
	HasRecommendation bool   `json:"has_recommendation"`
	HasConfirmedOrder bool   `json:"has_confirmed_order"`
}

// sendChat 发送一轮对话；role=officer 时走采购专员端
func sendChat(role, sessionID, message string) (*chatResponse, error) {
	path := "/api/chat"
	if role == "officer" {
		path = "/api/requisition/chat"
	}
	var out chatResponse
	resp, err := newClient().R().
		SetBody(map[string]string{"message": message, "session_id": sessionID}).
		SetResult(&out).
		Post(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST %s: %s", path, resp.String())
	}
	return &out, nil
}

// getSession 拉取会话完整快照
func getSession(sessionID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/chat/session/" + sessionID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/chat/session/%s: %s", sessionID, resp.String())
	}
	return out, nil
}

// deleteSession 丢弃会话
func deleteSession(sessionID string) error {
	resp, err := newClient().R().
		Delete("/api/chat/session/" + sessionID)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("DELETE /api/chat/session/%s: %s", sessionID, resp.String())
	}
	return nil
}

func prettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
