// Package codec implements the protocol dispatch table.
package codec

import (
	"fmt"

	"firestige.xyz/strix/internal/core"
)

// Registry maps IP protocol numbers to codecs through a flat table. Register
// everything during startup; lookups afterwards are lock-free.
type Registry struct {
	byProto [256]Codec
	codecs  []Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a codec and claims its protocol numbers. A protocol already
// claimed by an earlier codec rejects the whole registration.
func (r *Registry) Register(c Codec) error {
	ids := c.Protocols()
	for _, id := range ids {
		if r.byProto[id] != nil {
			return fmt.Errorf("%w: protocol %d wanted by %q, held by %q",
				core.ErrProtocolClaimed, id, c.Name(), r.byProto[id].Name())
		}
	}
	for _, id := range ids {
		r.byProto[id] = c
	}
	r.codecs = append(r.codecs, c)
	return nil
}

// Lookup returns the codec claiming the protocol number.
func (r *Registry) Lookup(proto uint8) (Codec, bool) {
	c := r.byProto[proto]
	return c, c != nil
}

// Codecs returns registered codecs in registration order.
func (r *Registry) Codecs() []Codec {
	out := make([]Codec, len(r.codecs))
	copy(out, r.codecs)
	return out
}

// Shutdown releases codec global state in reverse registration order. Call
// only after every worker has stopped.
func (r *Registry) Shutdown() {
	for i := len(r.codecs) - 1; i >= 0; i-- {
		if s, ok := r.codecs[i].(Shutdowner); ok {
			s.Shutdown()
		}
	}
}
