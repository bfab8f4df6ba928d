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

package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store 进程内会话仓库。会话只增不逐出，生命周期与进程一致。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	userCtx  UserContext
}

// NewStore 创建仓库；userCtx 作为新会话的缺省请购人/部门
func NewStore(userCtx UserContext) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		userCtx:  userCtx,
	}
}

// Acquire 取出（必要时创建）会话并获取其轮锁。id 为空时生成新 id。
// 调用方处理完一轮后必须调用返回的 release。
func (st *Store) Acquire(id string) (*Session, func()) {
	if id == "" {
		id = "session-" + uuid.NewString()
	}

	st.mu.Lock()
	s, ok := st.sessions[id]
	if !ok {
		s = New(id, st.userCtx)
		st.sessions[id] = s
	}
	st.mu.Unlock()

	// 轮锁在全局锁之外获取，避免一个慢轮阻塞其他会话
	s.Lock()
	return s, s.Unlock
}

// Get 只读取会话，不存在时返回 nil
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Delete 删除会话；返回是否存在
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// List 返回全部会话摘要，按更新时间倒序
func (st *Store) List() []Summary {
	st.mu.RLock()
	out := make([]Summary, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s.Summarize())
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Len 当前会话数
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
