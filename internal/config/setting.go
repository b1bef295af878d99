package config

import (
	"context"

	"github.com/rancher/pages-deploy-action/internal/workdir"
)

// Provider computes a setting value. dir is the source working directory, which
// is also the process working directory while the provider runs.
type Provider[T any] func(ctx context.Context, dir string) (T, error)

// scope is the working-directory context shared by every setting of a Resolver.
type scope struct {
	dir string
}

// Setting is a named, overridable configuration slot. It is either unset (and
// falls back to a computed or static default), assigned a static value, or
// assigned a provider that is evaluated on every read.
type Setting[T any] struct {
	name     string
	scope    *scope
	fallback T
	compute  Provider[T]

	assigned bool
	value    T
	provider Provider[T]
}

func newSetting[T any](sc *scope, name string, fallback T, compute Provider[T]) Setting[T] {
	return Setting[T]{name: name, scope: sc, fallback: fallback, compute: compute}
}

// Name returns the canonical setting name.
func (s *Setting[T]) Name() string {
	return s.name
}

// Set assigns a static value, returned verbatim by Get.
func (s *Setting[T]) Set(v T) {
	s.assigned = true
	s.value = v
	s.provider = nil
}

// SetFunc assigns a provider. Like a computed default it runs on every Get,
// inside the source working directory.
func (s *Setting[T]) SetFunc(p Provider[T]) {
	var zero T
	s.assigned = true
	s.value = zero
	s.provider = p
}

// IsSet reports whether the setting was explicitly assigned.
func (s *Setting[T]) IsSet() bool {
	return s.assigned
}

// Get resolves the setting. Providers are not cached: two reads run the
// computation twice.
func (s *Setting[T]) Get(ctx context.Context) (T, error) {
	switch {
	case s.assigned && s.provider == nil:
		return s.value, nil
	case s.provider != nil:
		return s.evaluate(ctx, s.provider)
	case s.compute != nil:
		return s.evaluate(ctx, s.compute)
	default:
		return s.fallback, nil
	}
}

func (s *Setting[T]) evaluate(ctx context.Context, p Provider[T]) (T, error) {
	dir := ""
	if s.scope != nil {
		dir = s.scope.dir
	}
	return workdir.Value(dir, func() (T, error) {
		return p(ctx, dir)
	})
}
