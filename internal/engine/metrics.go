package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for one engine. All methods are
// nil-safe so an engine without metrics pays nothing.
type Metrics struct {
	MapsEncrypted prometheus.Counter
	MapsDecrypted prometheus.Counter
	ChunksSealed  prometheus.Counter
	ChunksOpened  prometheus.Counter
	BytesSealed   prometheus.Counter
	BytesOpened   prometheus.Counter
}

// NewMetrics creates the engine metrics and registers them with reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		MapsEncrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcrypt_maps_encrypted_total",
			Help: "Data maps produced by Encrypt",
		}),
		MapsDecrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcrypt_maps_decrypted_total",
			Help: "Data maps fully decrypted",
		}),
		ChunksSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcrypt_chunks_sealed_total",
			Help: "Chunks run through the outbound pipeline",
		}),
		ChunksOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcrypt_chunks_opened_total",
			Help: "Chunks fetched and decrypted",
		}),
		BytesSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcrypt_bytes_sealed_total",
			Help: "Plaintext bytes encrypted",
		}),
		BytesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcrypt_bytes_opened_total",
			Help: "Plaintext bytes recovered",
		}),
	}
	reg.MustRegister(m.MapsEncrypted, m.MapsDecrypted,
		m.ChunksSealed, m.ChunksOpened, m.BytesSealed, m.BytesOpened)
	return m
}

func (m *Metrics) addSealed(chunks, bytes int) {
	if m == nil {
		return
	}
	m.ChunksSealed.Add(float64(chunks))
	m.BytesSealed.Add(float64(bytes))
}

func (m *Metrics) addOpened(chunks, bytes int) {
	if m == nil {
		return
	}
	m.ChunksOpened.Add(float64(chunks))
	m.BytesOpened.Add(float64(bytes))
}

func (m *Metrics) mapEncrypted() {
	if m != nil {
		m.MapsEncrypted.Inc()
	}
}

func (m *Metrics) mapDecrypted() {
	if m != nil {
		m.MapsDecrypted.Inc()
	}
}
