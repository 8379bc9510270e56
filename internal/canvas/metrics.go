package canvas

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ActiveViewers  prometheus.Gauge
	MutationsTotal prometheus.Counter
	RendersTotal   *prometheus.CounterVec
	HistoryMoves   *prometheus.CounterVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			ActiveViewers: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "roomstage_canvas_active_viewers",
				Help: "Current number of active canvas stream subscribers",
			}),
			MutationsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "roomstage_canvas_mutations_total",
				Help: "Total number of canvas item mutations",
			}),
			RendersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomstage_canvas_renders_total",
				Help: "Visualization renders requested, by change kind",
			}, []string{"kind"}),
			HistoryMoves: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomstage_canvas_history_moves_total",
				Help: "Undo/redo navigations on the visualization history",
			}, []string{"direction"}),
		}
	})
	return metricsInstance
}

func (m *Metrics) ViewerConnected() {
	if m == nil || m.ActiveViewers == nil {
		return
	}
	m.ActiveViewers.Inc()
}

func (m *Metrics) ViewerDisconnected() {
	if m == nil || m.ActiveViewers == nil {
		return
	}
	m.ActiveViewers.Dec()
}

func (m *Metrics) RecordMutation() {
	if m == nil || m.MutationsTotal == nil {
		return
	}
	m.MutationsTotal.Inc()
}

func (m *Metrics) RecordRender(kind ChangeKind) {
	if m == nil || m.RendersTotal == nil {
		return
	}
	m.RendersTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordHistoryMove(direction string) {
	if m == nil || m.HistoryMoves == nil {
		return
	}
	m.HistoryMoves.WithLabelValues(direction).Inc()
}
