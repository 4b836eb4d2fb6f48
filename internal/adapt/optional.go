package adapt

import "github.com/ve11yn/dochi/internal/wire"

// Optional converts a wire optional to a pointer; nil means absent.
func Optional[T any](o wire.Opt[T]) *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}

// FromOptional converts a pointer to a wire optional; nil becomes [].
func FromOptional[T any](p *T) wire.Opt[T] {
	if p == nil {
		return wire.None[T]()
	}
	return wire.Some(*p)
}

// mapOptional converts a present pointer with fn, keeping absence.
func mapOptional[T, W any](p *T, fn func(T) W) wire.Opt[W] {
	if p == nil {
		return wire.None[W]()
	}
	return wire.Some(fn(*p))
}
