package events

import (
	"context"
	"sync"

	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// Recorder 把事件保存在内存中
type Recorder struct {
	mu     sync.Mutex
	events []models.Event
	closed bool
}

// NewRecorder 创建事件记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish 记录事件
func (r *Recorder) Publish(_ context.Context, event models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Close 标记为已关闭
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events 已记录事件的副本
func (r *Recorder) Events() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Closed 是否已关闭
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
