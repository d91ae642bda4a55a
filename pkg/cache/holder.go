package cache

import (
	"reflect"
	"weak"
)

// holder is a value container that may report itself empty at any time.
type holder[V any] interface {
	load() (V, bool)
	reclaimed() bool
	reclaimable() bool
}

type strongHolder[V any] struct {
	value V
}

func (h strongHolder[V]) load() (V, bool) { return h.value, true }
func (strongHolder[V]) reclaimed() bool { return false }
func (strongHolder[V]) reclaimable() bool { return false }

// softHolder keeps a private copy of the value behind a weak pointer.
// Nothing else references the copy, so any garbage collection cycle may
// clear it; the entry then reads as a miss. For pointer values the copy is
// the pointer itself, so the entry clears even while the pointee is still
// reachable elsewhere.
type softHolder[V any] struct {
	ref weak.Pointer[V]
}

func newSoftHolder[V any](v V) *softHolder[V] {
	p := new(V)
	*p = v
	return &softHolder[V]{ref: weak.Make(p)}
}

func (h *softHolder[V]) load() (V, bool) {
	p := h.ref.Value()
	if p == nil {
		var zero V
		return zero, false
	}
	return *p, true
}

func (h *softHolder[V]) reclaimed() bool { return h.ref.Value() == nil }
func (*softHolder[V]) reclaimable() bool { return true }

// newHolder holds nil results strongly even when soft is set: there is
// nothing to reclaim, and a nil result stays cached until its TTL.
func newHolder[V any](v V, soft bool) holder[V] {
	if soft && !isNilValue(v) {
		return newSoftHolder(v)
	}
	return strongHolder[V]{value: v}
}

func isNilValue[V any](v V) bool {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
