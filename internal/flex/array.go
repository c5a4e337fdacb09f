package flex

import "fmt"

// mappable is the part of an Array the owning Buffer drives as a group.
type mappable interface {
	arrayName() string
	resolve()
	release()
}

// Array is one GPU-visible array inside a Buffer. Host access (At, Set, Slice) is only
// valid while the owning buffer is mapped; solver access (Device, Readback) only while unmapped.
// Length is metadata and may be queried in either state.
type Array[T any] struct {
	name  string
	owner *Buffer
	data  []T
	limit int

	// staged holds a solver readback that becomes host-visible at the next Map.
	staged  []T
	pending bool
}

func newArray[T any](b *Buffer, name string, length, limit int) *Array[T] {
	a := &Array[T]{
		name:  name,
		owner: b,
		data:  make([]T, length, limit),
		limit: limit,
	}
	b.arrays = append(b.arrays, a)
	return a
}

func (a *Array[T]) arrayName() string { return a.name }

// Name returns the array name used in panics and logs.
func (a *Array[T]) Name() string { return a.name }

// Len returns the number of elements currently in the array.
func (a *Array[T]) Len() int { return len(a.data) }

// Cap returns the committed capacity of the array.
func (a *Array[T]) Cap() int { return a.limit }

// At returns element i. The buffer must be mapped.
func (a *Array[T]) At(i int) T {
	a.owner.mustMapped(a.name)
	a.checkIndex(i)
	return a.data[i]
}

// Set writes element i. The buffer must be mapped.
func (a *Array[T]) Set(i int, v T) {
	a.owner.mustMapped(a.name)
	a.checkIndex(i)
	a.data[i] = v
}

// Slice returns the host view of the array. The buffer must be mapped, and the
// slice must not be kept past the next Unmap.
func (a *Array[T]) Slice() []T {
	a.owner.mustMapped(a.name)
	return a.data
}

// Device returns the array contents for a solver upload. The buffer must be unmapped.
func (a *Array[T]) Device() []T {
	a.owner.mustUnmapped(a.name)
	return a.data
}

// Readback stages src as the new array contents. The copy is made now but only
// becomes visible to the host at the next Map, mirroring an asynchronous GPU download.
func (a *Array[T]) Readback(src []T) {
	a.owner.mustUnmapped(a.name)
	n := min(len(src), len(a.data))
	a.staged = append(a.staged[:0], src[:n]...)
	a.pending = true
}

func (a *Array[T]) resolve() {
	if !a.pending {
		return
	}
	copy(a.data, a.staged)
	a.pending = false
}

func (a *Array[T]) release() {
	a.data = nil
	a.staged = nil
	a.pending = false
	a.limit = 0
}

func (a *Array[T]) checkIndex(i int) {
	if i < 0 || i >= len(a.data) {
		panic(fmt.Sprintf("flex: %s index %d out of range [0,%d)", a.name, i, len(a.data)))
	}
}

// room reports whether n more elements fit under the committed capacity.
func (a *Array[T]) room(n int) bool {
	return len(a.data)+n <= a.limit
}

// push appends v and returns its index. Callers check room first.
func (a *Array[T]) push(v T) int {
	a.data = append(a.data, v)
	return len(a.data) - 1
}

// resize sets the length, zero-filling new elements. Callers check capacity first.
func (a *Array[T]) resize(n int) {
	if n <= len(a.data) {
		a.data = a.data[:n]
		return
	}
	var zero T
	for len(a.data) < n {
		a.data = append(a.data, zero)
	}
}

// zero clears every element without changing the length.
func (a *Array[T]) zero() {
	clear(a.data)
}
