// Package engine runs the capture → dispatch → decode pipeline.
package engine

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"firestige.xyz/strix/internal/active"
	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/codec"
	"firestige.xyz/strix/internal/codec/tcp"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/dispatch"
	"firestige.xyz/strix/internal/event"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
)

// reactiveCodes are the anomalies the engine answers with a reset when
// active response is enabled. All of them identify a hostile segment on
// their own, without stream state.
var reactiveCodes = []event.Code{
	event.XmasAttack,
	event.XmasAttackNmapVariant,
	event.NapthaSignature,
	event.LegacySynfloodSignature,
}

// Stats aggregates engine counters across the reader and every worker.
type Stats struct {
	Captured         int64
	Decoded          int64
	DecodeErrors     int64
	ParseErrors      int64
	Ignored          int64
	ChecksumFailures int64
	DropRequests     int64
	Events           int64
	KernelDrops      uint64
	Dispatch         dispatch.Stats
}

// Engine owns the capture source, the flow dispatcher, and the decode
// workers. Construct with New, then Start, then Stop; Wait blocks until the
// source is exhausted or the engine is stopped.
type Engine struct {
	cfg        *config.Config
	source     capture.Source
	sourceName string
	registry   *codec.Registry
	dispatcher *dispatch.Dispatcher
	workers    []*worker
	responder  *active.Responder

	readerWG sync.WaitGroup
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}

	captured    int64
	events      int64
	kernelDrops uint64
}

// New assembles the pipeline for cfg around an opened-later source. The
// injector is only used when active response is enabled; nil falls back to
// discarding forged segments.
func New(cfg *config.Config, source capture.Source, injector active.Injector) (*Engine, error) {
	e := &Engine{
		cfg:        cfg,
		source:     source,
		sourceName: cfg.Capture.Type,
		registry:   codec.NewRegistry(),
		done:       make(chan struct{}),
	}

	sinks := []event.Sink{
		NewLogSink(),
		NewMetricsSink(),
		event.SinkFunc(func(*core.Packet, event.Code) { atomic.AddInt64(&e.events, 1) }),
	}
	if cfg.Response.Enabled {
		e.responder = active.NewResponder(e.registry, injector)
		sinks = append(sinks, active.NewReactiveSink(e.responder, reactiveCodes...))
	}
	sink := event.Multi(sinks...)

	tcpCodec, err := tcp.New(tcp.Config{
		ValidateChecksums: cfg.Decode.TCP.Checksums,
		DropBadChecksums:  cfg.Decode.TCP.DropBadChecksums,
		Inline:            cfg.Decode.TCP.Inline,
		PayloadDelivered:  cfg.Response.AssumeDelivered,
		MulticastGroups:   cfg.Decode.TCP.MulticastGroups,
	}, sink)
	if err != nil {
		return nil, err
	}
	if err := e.registry.Register(tcpCodec); err != nil {
		return nil, err
	}

	n := cfg.Engine.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	queueSize := cfg.Engine.QueueSize
	if queueSize <= 0 {
		queueSize = 65536
	}

	e.workers = make([]*worker, n)
	for i := 0; i < n; i++ {
		e.workers[i] = newWorker(i, e.registry)
	}
	e.dispatcher = dispatch.New(n, queueSize, e.handleFrame)

	return e, nil
}

func (e *Engine) handleFrame(partition int, f *dispatch.Frame) error {
	return e.workers[partition].process(f)
}

// Start opens the source and launches the reader.
func (e *Engine) Start(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	if err := e.source.Start(rctx); err != nil {
		cancel()
		return err
	}

	e.readerWG.Add(1)
	go e.readLoop(rctx)

	log.GetLogger().WithFields(map[string]interface{}{
		"source":    e.sourceName,
		"workers":   len(e.workers),
		"inline":    e.cfg.Decode.TCP.Inline,
		"checksums": e.cfg.Decode.TCP.Checksums,
		"response":  e.cfg.Response.Enabled,
	}).Info("engine started")
	return nil
}

// Wait blocks until the reader exits: source exhausted, or Stop.
func (e *Engine) Wait() { <-e.done }

// Stop tears the pipeline down in order: reader, dispatcher drain, codec
// shutdown hooks, source. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		e.readerWG.Wait()
		e.dispatcher.Close()
		e.recordSourceStats()
		e.registry.Shutdown()
		e.source.Stop()

		s := e.Stats()
		log.GetLogger().WithFields(map[string]interface{}{
			"captured": s.Captured,
			"decoded":  s.Decoded,
			"events":   s.Events,
			"dropped":  s.Dispatch.Dropped,
		}).Info("engine stopped")
	})
}

func (e *Engine) readLoop(ctx context.Context) {
	defer e.readerWG.Done()
	defer close(e.done)

	captured := metrics.CapturePacketsTotal.WithLabelValues(e.sourceName)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, ci, err := e.source.ReadPacket()
		switch {
		case err == nil:
		case errors.Is(err, capture.ErrTimeout):
			continue
		case errors.Is(err, io.EOF):
			log.GetLogger().Info("capture source exhausted")
			return
		default:
			log.GetLogger().WithError(err).Warn("capture read failed")
			time.Sleep(10 * time.Millisecond)
			continue
		}

		atomic.AddInt64(&e.captured, 1)
		captured.Inc()
		e.dispatcher.Publish(FlowKey(data), &dispatch.Frame{Data: data, Info: ci})
	}
}

// recordSourceStats folds the kernel capture counters into metrics once, at
// shutdown, while the handle is still open.
func (e *Engine) recordSourceStats() {
	sp, ok := e.source.(capture.StatsProvider)
	if !ok {
		return
	}
	stats, err := sp.Stats()
	if err != nil {
		log.GetLogger().WithError(err).Debug("capture stats unavailable")
		return
	}
	atomic.StoreUint64(&e.kernelDrops, stats.Dropped)
	metrics.CaptureDropsTotal.WithLabelValues(e.sourceName).Add(float64(stats.Dropped))
}

// Stats aggregates the per-worker accumulators on demand.
func (e *Engine) Stats() Stats {
	s := Stats{
		Captured:    atomic.LoadInt64(&e.captured),
		Events:      atomic.LoadInt64(&e.events),
		KernelDrops: atomic.LoadUint64(&e.kernelDrops),
		Dispatch:    e.dispatcher.Stats(),
	}
	for _, w := range e.workers {
		s.Decoded += atomic.LoadInt64(&w.nDecoded)
		s.DecodeErrors += atomic.LoadInt64(&w.nDecodeErr)
		s.ParseErrors += atomic.LoadInt64(&w.nParseErr)
		s.Ignored += atomic.LoadInt64(&w.nIgnored)
		s.ChecksumFailures += atomic.LoadInt64(&w.nChecksum)
		s.DropRequests += atomic.LoadInt64(&w.nDropReq)
	}
	return s
}
