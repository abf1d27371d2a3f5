// Package dispatch fans captured frames out to decode workers while keeping
// every frame of a flow on the same worker.
package dispatch

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/serialx/hashring"

	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
)

// Frame is one captured frame. Data is owned by the frame; capture sources
// hand out copies, never ring memory.
type Frame struct {
	Data []byte
	Info gopacket.CaptureInfo
}

// Handler processes one frame on the given partition. The partition index is
// stable for a flow key, so handlers can keep per-partition state without
// locks.
type Handler func(partition int, f *Frame) error

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Published  int64
	Processed  int64
	Dropped    int64
	Partitions int
	QueueDepth []int
}

type partition struct {
	id    int
	queue chan *Frame
	drops prometheus.Counter
}

// Dispatcher maps flow keys onto partitions with a consistent-hash ring and
// runs one consumer goroutine per partition.
type Dispatcher struct {
	partitions []*partition
	nodes      []string
	ring       *hashring.HashRing
	handler    Handler
	closed     int32
	wg         sync.WaitGroup

	published int64
	processed int64
	dropped   int64
}

// New starts partitionCount consumers, each draining a queue of queueSize
// frames through handler.
func New(partitionCount, queueSize int, handler Handler) *Dispatcher {
	d := &Dispatcher{
		partitions: make([]*partition, partitionCount),
		nodes:      make([]string, partitionCount),
		handler:    handler,
	}

	for i := 0; i < partitionCount; i++ {
		d.nodes[i] = "partition-" + strconv.Itoa(i)
	}
	d.ring = hashring.New(d.nodes)

	for i := 0; i < partitionCount; i++ {
		d.partitions[i] = &partition{
			id:    i,
			queue: make(chan *Frame, queueSize),
			drops: metrics.DispatchDropsTotal.WithLabelValues(strconv.Itoa(i)),
		}
		d.wg.Add(1)
		go d.runPartition(d.partitions[i])
	}

	return d
}

// Publish hands a frame to the consumer owning key. It never blocks: when the
// partition queue is full the frame is counted as dropped and false is
// returned. Publish must not be called concurrently with Close.
func (d *Dispatcher) Publish(key string, f *Frame) bool {
	if atomic.LoadInt32(&d.closed) == 1 {
		return false
	}

	p := d.partitions[d.partitionFor(key)]

	select {
	case p.queue <- f:
		atomic.AddInt64(&d.published, 1)
		metrics.DispatchPublishedTotal.Inc()
		return true
	default:
		atomic.AddInt64(&d.dropped, 1)
		p.drops.Inc()
		return false
	}
}

// Close stops accepting frames, drains every queue, and waits for the
// consumers to finish.
func (d *Dispatcher) Close() {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return
	}
	for _, p := range d.partitions {
		close(p.queue)
	}
	d.wg.Wait()
	log.GetLogger().Debug("dispatcher closed")
}

// Stats returns a snapshot of the dispatcher counters and queue depths.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		Published:  atomic.LoadInt64(&d.published),
		Processed:  atomic.LoadInt64(&d.processed),
		Dropped:    atomic.LoadInt64(&d.dropped),
		Partitions: len(d.partitions),
		QueueDepth: make([]int, len(d.partitions)),
	}
	for i, p := range d.partitions {
		s.QueueDepth[i] = len(p.queue)
	}
	return s
}

// partitionFor resolves a flow key to a partition index via the hash ring.
func (d *Dispatcher) partitionFor(key string) int {
	node, ok := d.ring.GetNode(key)
	if !ok {
		return 0
	}
	for i, name := range d.nodes {
		if name == node {
			return i
		}
	}
	return 0
}

// runPartition drains one queue until it is closed. Handler errors are
// logged and do not stop the consumer.
func (d *Dispatcher) runPartition(p *partition) {
	defer d.wg.Done()

	for f := range p.queue {
		if err := d.handler(p.id, f); err != nil {
			log.GetLogger().WithError(err).Errorf("frame handler failed on partition %d", p.id)
			continue
		}
		atomic.AddInt64(&d.processed, 1)
	}
}
