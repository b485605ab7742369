package model

import (
	"bytes"
	"encoding/json"
)

// Optional 可区分“未提供”、“显式null”和“有值”三种状态的字段
type Optional[T any] struct {
	Set   bool // 请求中出现了该字段
	Null  bool // 字段值为null
	Value T
}

// Some 构造有值的字段
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null 构造显式null的字段
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON 实现json.Unmarshaler接口
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON 实现json.Marshaler接口
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// HasValue 提供了非null值
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// Ptr 返回值指针，未提供或为null时返回nil
func (o Optional[T]) Ptr() *T {
	if !o.HasValue() {
		return nil
	}
	v := o.Value
	return &v
}

// Put 字段出现时写入更新列，null写入nil
func (o Optional[T]) Put(cols map[string]interface{}, column string) {
	if !o.Set {
		return
	}
	if o.Null {
		cols[column] = nil
		return
	}
	cols[column] = o.Value
}
