package types

import (
	"fmt"
	"sync"
)

type future[T any] struct {
	mtx    sync.Mutex
	f      func() (T, error)
	result T
	err    error
	stored bool
}

// Future is a value computed on first use. A failed computation is not
// cached so the next Get retries it.
type Future[T any] interface {
	Get() (T, error)
	GetOrPanic() T
	Reset()
	String() string
}

func (f *future[T]) Get() (T, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if !f.stored && f.f != nil {
		f.result, f.err = f.f()
		f.stored = f.err == nil
	}

	return f.result, f.err
}

func (f *future[T]) GetOrPanic() T {
	v, err := f.Get()
	if err != nil {
		panic(err)
	}

	return v
}

func (f *future[T]) Reset() {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	var empty T
	f.stored = false
	f.result = empty
	f.err = nil
}

func (f *future[T]) String() string {
	v, err := f.Get()
	if err != nil {
		return fmt.Sprintf("<error: %s>", err)
	}

	return fmt.Sprint(v)
}

func FutureFrom[T any](a T) Future[T] {
	return &future[T]{
		f: func() (T, error) {
			return a, nil
		},
	}
}

func FutureFromFunc[T any](f func() T) Future[T] {
	return &future[T]{
		f: func() (T, error) {
			return f(), nil
		},
	}
}

func FutureFromFuncErr[T any](f func() (T, error)) Future[T] {
	return &future[T]{
		f: f,
	}
}
