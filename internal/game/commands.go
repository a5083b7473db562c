// commands.go

package game

import (
	"errors"
	"fmt"

	"github.com/jacl-coder/BorderBounce-Server/internal/models"
	"github.com/jacl-coder/BorderBounce-Server/internal/protocol"
)

var (
	// ErrUnknownMessage 未知的消息类型
	ErrUnknownMessage = errors.New("未知的消息类型")
	// ErrBadPayload 消息负载无法解析
	ErrBadPayload = errors.New("消息负载无效")
	// ErrNotHost 没有控制权限
	ErrNotHost = errors.New("需要主持人令牌")
)

// applyMessage 将客户端消息应用到会话
func applyMessage(s *Session, msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypeAddPlayer:
		var p protocol.AddPlayerPayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		_, err := s.AddPlayer(p.Name)
		return err

	case protocol.TypeRemovePlayer:
		var p protocol.PlayerPayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		s.RemovePlayer(p.PlayerID)

	case protocol.TypeRenamePlayer:
		var p protocol.RenamePlayerPayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		return s.RenamePlayer(p.PlayerID, p.Name)

	case protocol.TypeDecrementHealth:
		var p protocol.PlayerPayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		s.DecrementHealth(p.PlayerID)

	case protocol.TypeResetHealth:
		var p protocol.ResetHealthPayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		s.ResetHealth(p.Health)

	case protocol.TypeStart:
		return s.Start()
	case protocol.TypePause:
		return s.Pause()
	case protocol.TypeResume:
		return s.Resume()
	case protocol.TypeReset:
		s.Reset()

	case protocol.TypeUpdateSettings:
		var p models.SettingsPatch
		if err := bind(msg, &p); err != nil {
			return err
		}
		s.UpdateSettings(p)

	case protocol.TypeSetDirection:
		var p protocol.DirectionPayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		return s.SetLogoDirection(p.DX, p.DY)

	case protocol.TypeResize:
		var p protocol.ResizePayload
		if err := bind(msg, &p); err != nil {
			return err
		}
		return s.Resize(p.Width, p.Height)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type)
	}
	return nil
}

func bind(msg protocol.Message, v interface{}) error {
	if err := msg.Bind(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// errorCode 错误对应的协议错误码
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownMessage):
		return protocol.ErrCodeUnknownType
	case errors.Is(err, ErrBadPayload):
		return protocol.ErrCodeBadMessage
	case errors.Is(err, ErrNotHost):
		return protocol.ErrCodeUnauthorized
	default:
		return protocol.ErrCodeRejected
	}
}
