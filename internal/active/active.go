// Package active forges TCP response segments for sessions the sensor wants
// to disturb and hands them to an injector. Framing and transmission below
// the transport layer stay outside this package.
package active

import (
	"fmt"

	"firestige.xyz/strix/internal/codec"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
)

// Injector carries a forged transport segment toward the wire. The IP
// context names the session the segment belongs to so the outer layer can
// frame it.
type Injector interface {
	Inject(ip *core.IPContext, segment []byte) error
}

// Responder builds response segments through the transport codec registry.
type Responder struct {
	reg *codec.Registry
	inj Injector
}

// NewResponder wires a responder to a registry and an injector. A nil
// injector silently discards segments.
func NewResponder(reg *codec.Registry, inj Injector) *Responder {
	if inj == nil {
		inj = NopInjector{}
	}
	return &Responder{reg: reg, inj: inj}
}

// SendReset forges a reset for p's session in the given direction.
func (r *Responder) SendReset(p *core.Packet, dir codec.Direction) error {
	return r.send(p, &codec.EncodeDirective{Type: codec.ResponseRST, Direction: dir})
}

// SendData forges a payload-bearing segment for p's session: a closing FIN
// when fin is set, otherwise a PUSH.
func (r *Responder) SendData(p *core.Packet, dir codec.Direction, payload []byte, fin bool) error {
	t := codec.ResponsePUSH
	if fin {
		t = codec.ResponseFIN
	}
	return r.send(p, &codec.EncodeDirective{Type: t, Direction: dir, Payload: payload})
}

func (r *Responder) send(p *core.Packet, d *codec.EncodeDirective) error {
	c, ok := r.reg.Lookup(p.IP.Proto)
	if !ok {
		return fmt.Errorf("active: %w: protocol %d", core.ErrCodecNotFound, p.IP.Proto)
	}

	template, err := templateLayer(p, p.IP.Proto)
	if err != nil {
		return err
	}

	seg, err := c.Encode(template, d, &p.IP)
	if err != nil {
		return fmt.Errorf("active: encode response: %w", err)
	}

	metrics.ResponsesTotal.WithLabelValues(kindLabel(d.Type), dirLabel(d.Direction)).Inc()
	return r.inj.Inject(&p.IP, seg)
}

// templateLayer finds the packet's layer for proto to serve as the encode
// template.
func templateLayer(p *core.Packet, proto uint8) ([]byte, error) {
	for i := range p.Layers {
		if p.Layers[i].Proto == proto {
			return p.Layers[i].Bytes, nil
		}
	}
	return nil, fmt.Errorf("active: packet carries no layer for protocol %d", proto)
}

func kindLabel(t codec.ResponseType) string {
	switch t {
	case codec.ResponseRST:
		return "rst"
	case codec.ResponseFIN:
		return "fin"
	default:
		return "push"
	}
}

func dirLabel(d codec.Direction) string {
	if d == codec.Reverse {
		return "reverse"
	}
	return "forward"
}

// NopInjector discards every segment.
type NopInjector struct{}

// Inject implements Injector.
func (NopInjector) Inject(*core.IPContext, []byte) error { return nil }

// LogInjector logs forged segments instead of transmitting them, for
// deployments that audit response behavior before arming it.
type LogInjector struct{}

// Inject implements Injector.
func (LogInjector) Inject(ip *core.IPContext, segment []byte) error {
	log.GetLogger().WithFields(map[string]interface{}{
		"src":   ip.SrcIP.String(),
		"dst":   ip.DstIP.String(),
		"proto": ip.Proto,
		"bytes": len(segment),
	}).Info("response segment built")
	return nil
}
