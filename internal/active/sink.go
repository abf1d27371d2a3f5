package active

import (
	"firestige.xyz/strix/internal/codec"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/event"
	"firestige.xyz/strix/internal/log"
)

// NewReactiveSink returns an event sink that answers the listed anomalies
// with a reverse-direction reset, the inline duty of the sensor. Events
// outside the list pass through untouched.
func NewReactiveSink(r *Responder, codes ...event.Code) event.Sink {
	react := make(map[event.Code]struct{}, len(codes))
	for _, c := range codes {
		react[c] = struct{}{}
	}

	return event.SinkFunc(func(p *core.Packet, c event.Code) {
		if _, ok := react[c]; !ok {
			return
		}
		if err := r.SendReset(p, codec.Reverse); err != nil {
			log.GetLogger().WithError(err).Debugf("reactive reset for %s failed", c)
		}
	})
}
