// events.go

package events

import (
	"context"
	"errors"

	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// Publisher 游戏事件发布者
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
	Close() error
}

// Nop 丢弃所有事件
type Nop struct{}

// Publish 不做任何事
func (Nop) Publish(context.Context, models.Event) error { return nil }

// Close 不做任何事
func (Nop) Close() error { return nil }

// Multi 把事件发给多个发布者
type Multi []Publisher

// Publish 依次发布，返回所有失败的合并错误
func (m Multi) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 关闭所有发布者
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine 合并发布者，忽略 nil；没有可用的发布者时返回 Nop
func Combine(publishers ...Publisher) Publisher {
	var list Multi
	for _, p := range publishers {
		if p != nil {
			list = append(list, p)
		}
	}
	switch len(list) {
	case 0:
		return Nop{}
	case 1:
		return list[0]
	default:
		return list
	}
}
