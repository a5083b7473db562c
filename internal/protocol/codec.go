// codec.go

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// 编解码器名称
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
	CodecProto   = "proto"
)

// Message 解码后的消息，负载延迟解析
type Message struct {
	Type    string
	Payload []byte
	bind    func(data []byte, v interface{}) error
}

// Bind 把负载解析到 v，没有负载时不做任何事
func (m Message) Bind(v interface{}) error {
	if len(m.Payload) == 0 || m.bind == nil {
		return nil
	}
	if err := m.bind(m.Payload, v); err != nil {
		return fmt.Errorf("解析 %s 消息负载失败: %w", m.Type, err)
	}
	return nil
}

// Codec 消息编解码器
type Codec interface {
	Name() string
	// Binary 是否使用二进制帧
	Binary() bool
	Encode(msgType string, payload interface{}) ([]byte, error)
	Decode(data []byte) (Message, error)
}

// CodecByName 按名称获取编解码器，空名称为JSON
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecMsgpack:
		return MsgpackCodec{}, nil
	case CodecProto:
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("未知的编码格式: %s", name)
	}
}

// JSONCodec 文本帧JSON
type JSONCodec struct{}

type jsonEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Name 名称
func (JSONCodec) Name() string { return CodecJSON }

// Binary 文本帧
func (JSONCodec) Binary() bool { return false }

// Encode 编码
func (JSONCodec) Encode(msgType string, payload interface{}) ([]byte, error) {
	env := struct {
		Type    string      `json:"type"`
		Payload interface{} `json:"payload,omitempty"`
	}{Type: msgType, Payload: payload}
	return json.Marshal(env)
}

// Decode 解码
func (JSONCodec) Decode(data []byte) (Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("解析消息失败: %w", err)
	}
	if env.Type == "" {
		return Message{}, fmt.Errorf("消息缺少type字段")
	}
	return Message{Type: env.Type, Payload: env.Payload, bind: json.Unmarshal}, nil
}

// MsgpackCodec 二进制帧msgpack，字段名沿用json标签
type MsgpackCodec struct{}

type msgpackEnvelope struct {
	Type    string             `json:"type"`
	Payload msgpack.RawMessage `json:"payload,omitempty"`
}

// Name 名称
func (MsgpackCodec) Name() string { return CodecMsgpack }

// Binary 二进制帧
func (MsgpackCodec) Binary() bool { return true }

// Encode 编码
func (MsgpackCodec) Encode(msgType string, payload interface{}) ([]byte, error) {
	env := struct {
		Type    string      `json:"type"`
		Payload interface{} `json:"payload,omitempty"`
	}{Type: msgType, Payload: payload}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode 解码
func (MsgpackCodec) Decode(data []byte) (Message, error) {
	var env msgpackEnvelope
	if err := msgpackUnmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("解析消息失败: %w", err)
	}
	if env.Type == "" {
		return Message{}, fmt.Errorf("消息缺少type字段")
	}
	return Message{Type: env.Type, Payload: env.Payload, bind: msgpackUnmarshal}, nil
}

func msgpackUnmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// ProtoCodec 二进制帧protobuf，消息体为 google.protobuf.Struct
type ProtoCodec struct{}

// Name 名称
func (ProtoCodec) Name() string { return CodecProto }

// Binary 二进制帧
func (ProtoCodec) Binary() bool { return true }

// Encode 编码，负载先转换为通用的 map 结构
func (ProtoCodec) Encode(msgType string, payload interface{}) ([]byte, error) {
	fields := map[string]interface{}{"type": msgType}
	if payload != nil {
		generic, err := toGeneric(payload)
		if err != nil {
			return nil, err
		}
		fields["payload"] = generic
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("构建protobuf消息失败: %w", err)
	}
	return proto.Marshal(st)
}

// Decode 解码
func (ProtoCodec) Decode(data []byte) (Message, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Message{}, fmt.Errorf("解析消息失败: %w", err)
	}

	msgType := st.GetFields()["type"].GetStringValue()
	if msgType == "" {
		return Message{}, fmt.Errorf("消息缺少type字段")
	}

	msg := Message{Type: msgType, bind: json.Unmarshal}
	if payload, ok := st.GetFields()["payload"]; ok {
		raw, err := protojson.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("解析消息负载失败: %w", err)
		}
		msg.Payload = raw
	}
	return msg, nil
}

// toGeneric 通过JSON把结构体转换为 structpb 接受的类型
func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化负载失败: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("转换负载失败: %w", err)
	}
	return generic, nil
}
