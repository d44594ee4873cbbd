// Package intercept keeps named host operations and the wrappers installed
// around them. A wrapper receives the operation it replaces and returns the
// replacement, so it can run its own logic and still call through.
//
// Wrappers may be registered before the host provides the operation. They
// compose in registration order: the most recent wrapper is outermost and its
// original is the wrapper registered just before it, or the host built-in.
package intercept

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrAlreadyProvided   = errors.New("operation already provided")
	ErrSignatureMismatch = errors.New("operation signature mismatch")
	ErrNilWrapper        = errors.New("nil wrapper")
)

type entry struct {
	typ      reflect.Type
	base     any
	wrappers []any
}

type Registry struct {
	mu  sync.RWMutex
	ops map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*entry)}
}

// Provide registers the host's built-in implementation of name.
func Provide[F any](r *Registry, name string, op F) error {
	typ := reflect.TypeFor[F]()
	if typ.Kind() != reflect.Func {
		return fmt.Errorf("provide %s: %w: %v is not a function type", name, ErrSignatureMismatch, typ)
	}
	if reflect.ValueOf(op).IsNil() {
		return fmt.Errorf("provide %s: nil operation", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.entryFor(name, typ)
	if err != nil {
		return fmt.Errorf("provide %s: %w", name, err)
	}
	if e.base != nil {
		return fmt.Errorf("provide %s: %w", name, ErrAlreadyProvided)
	}
	e.base = op
	return nil
}

// Intercept installs wrap around name.
func Intercept[F any](r *Registry, name string, wrap func(original F) F) error {
	if wrap == nil {
		return fmt.Errorf("intercept %s: %w", name, ErrNilWrapper)
	}
	typ := reflect.TypeFor[F]()
	if typ.Kind() != reflect.Func {
		return fmt.Errorf("intercept %s: %w: %v is not a function type", name, ErrSignatureMismatch, typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.entryFor(name, typ)
	if err != nil {
		return fmt.Errorf("intercept %s: %w", name, err)
	}
	e.wrappers = append(e.wrappers, wrap)
	return nil
}

// Resolve builds the call chain for name. The chain is rebuilt on every call
// so wrappers installed later are picked up by later resolutions.
func Resolve[F any](r *Registry, name string) (F, error) {
	var zero F

	r.mu.RLock()
	e, ok := r.ops[name]
	var base any
	var wrappers []any
	if ok {
		base = e.base
		wrappers = append([]any(nil), e.wrappers...)
	}
	r.mu.RUnlock()

	if !ok || base == nil {
		return zero, fmt.Errorf("resolve %s: %w", name, ErrUnknownOperation)
	}

	op, ok := base.(F)
	if !ok {
		return zero, fmt.Errorf("resolve %s: %w: have %T", name, ErrSignatureMismatch, base)
	}
	for _, w := range wrappers {
		wrap, ok := w.(func(F) F)
		if !ok {
			return zero, fmt.Errorf("resolve %s: %w: wrapper %T", name, ErrSignatureMismatch, w)
		}
		op = wrap(op)
	}
	return op, nil
}

// Names lists the registered operations.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wrappers reports how many wrappers are installed around name.
func (r *Registry) Wrappers(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.ops[name]; ok {
		return len(e.wrappers)
	}
	return 0
}

func (r *Registry) entryFor(name string, typ reflect.Type) (*entry, error) {
	e, ok := r.ops[name]
	if !ok {
		e = &entry{typ: typ}
		r.ops[name] = e
		return e, nil
	}
	if e.typ != typ {
		return nil, fmt.Errorf("%w: registered as %v, got %v", ErrSignatureMismatch, e.typ, typ)
	}
	return e, nil
}
