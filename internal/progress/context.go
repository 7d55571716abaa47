package progress

import "context"

type emitterKey struct{}

// NewContext returns a context carrying the emitter, so fetch internals can
// report progress without threading an extra dependency through every call.
func NewContext(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

// FromContext returns the emitter carried by ctx, or a no-op emitter when
// none was attached.
func FromContext(ctx context.Context) Emitter {
	if e, ok := ctx.Value(emitterKey{}).(Emitter); ok && e != nil {
		return e
	}
	return nopEmitter{}
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}
