package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/robotalks/stp.go/pkg/stp"
)

// Metrics contains Prometheus metrics of the decoding pipeline.
type Metrics struct {
	PacketsDecoded   *prometheus.CounterVec
	SyncLosses       prometheus.Counter
	Bytes            prometheus.Counter
	Chunks           prometheus.Counter
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	Synchronized     prometheus.Gauge
}

// New creates and registers metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PacketsDecoded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stp_packets_decoded_total",
			Help: "Total number of decoded packets by type",
		}, []string{"type"}),
		SyncLosses: f.NewCounter(prometheus.CounterOpts{
			Name: "stp_sync_losses_total",
			Help: "Total number of sync losses reported by the capture",
		}),
		Bytes: f.NewCounter(prometheus.CounterOpts{
			Name: "stp_bytes_total",
			Help: "Total number of bytes fed into the decoder",
		}),
		Chunks: f.NewCounter(prometheus.CounterOpts{
			Name: "stp_chunks_total",
			Help: "Total number of chunks fed into the decoder",
		}),
		RecordsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "stp_records_published_total",
			Help: "Total number of records published",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "stp_publish_errors_total",
			Help: "Total number of records failed to publish",
		}),
		Synchronized: f.NewGauge(prometheus.GaugeOpts{
			Name: "stp_synchronized",
			Help: "1 if the decoder is synchronized",
		}),
	}
}

// ChunkReceived implements stp.Observer.
func (m *Metrics) ChunkReceived(size int) {
	m.Chunks.Inc()
	m.Bytes.Add(float64(size))
}

// SyncLost implements stp.Observer.
func (m *Metrics) SyncLost() {
	m.SyncLosses.Inc()
}

// StateChanged implements stp.StateNotifier.
func (m *Metrics) StateChanged(state stp.SyncState) {
	if state.IsReady() {
		m.Synchronized.Set(1)
	} else {
		m.Synchronized.Set(0)
	}
}

// RecordPublished implements mqtt.PublishObserver.
func (m *Metrics) RecordPublished() {
	m.RecordsPublished.Inc()
}

// PublishFailed implements mqtt.PublishObserver.
func (m *Metrics) PublishFailed() {
	m.PublishErrors.Inc()
}

// CountPackets wraps h to count decoded packets.
func (m *Metrics) CountPackets(h stp.PacketHandler) stp.PacketHandler {
	var counters [stp.NotSupported + 1]prometheus.Counter
	for t := range counters {
		counters[t] = m.PacketsDecoded.WithLabelValues(stp.ControlType(t).String())
	}
	return stp.HandlePacketFunc(func(pkt *stp.Packet) {
		if int(pkt.Type) < len(counters) {
			counters[pkt.Type].Inc()
		}
		if h != nil {
			h.HandlePacket(pkt)
		}
	})
}
