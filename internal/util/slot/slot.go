// Package slot 提供可原子替换的单值持有槽
//
// 传输链用它保存每一层的引用：挂载是“为空才设置”的 CAS，
// 拆除是原子取出。拆除与挂载竞争时，两者只有一方成功。
package slot

import "sync/atomic"

type holder[T any] struct {
	v T
}

// Slot 持有一个值，零值为空槽
type Slot[T any] struct {
	p atomic.Pointer[holder[T]]
}

// Attach 在槽为空时放入 v，返回是否成功
func (s *Slot[T]) Attach(v T) bool {
	return s.p.CompareAndSwap(nil, &holder[T]{v: v})
}

// Take 取出并清空槽内的值
func (s *Slot[T]) Take() (T, bool) {
	h := s.p.Swap(nil)
	if h == nil {
		var zero T
		return zero, false
	}
	return h.v, true
}

// Load 读取当前值
func (s *Slot[T]) Load() (T, bool) {
	h := s.p.Load()
	if h == nil {
		var zero T
		return zero, false
	}
	return h.v, true
}

// Store 无条件替换，返回旧值
func (s *Slot[T]) Store(v T) (T, bool) {
	h := s.p.Swap(&holder[T]{v: v})
	if h == nil {
		var zero T
		return zero, false
	}
	return h.v, true
}

// Empty 槽是否为空
func (s *Slot[T]) Empty() bool {
	return s.p.Load() == nil
}
