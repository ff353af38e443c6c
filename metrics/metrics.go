// Package metrics exposes the reactor's and Kafka pool's live counters as
// Prometheus metrics over a plain HTTP endpoint, in the spirit of the
// teacher's own small dedicated metrics listener.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trivago/netrunner/logx"
	"github.com/trivago/netrunner/reactor"
)

// Registry holds the gauges/counters this runtime publishes. A process
// has exactly one Registry.
type Registry struct {
	reg *prometheus.Registry

	activeConnections prometheus.GaugeFunc
	http1Served       prometheus.CounterFunc
	http2Preface      prometheus.CounterFunc
	rejected          prometheus.CounterFunc

	kafkaMessagesConsumed prometheus.Counter
	kafkaMessagesProduced prometheus.Counter
	kafkaConsumerLag      *prometheus.GaugeVec

	server *http.Server
}

// NewRegistry builds a Registry wired to the reactor's live Stats. Kafka
// counters are updated by callers via IncKafkaConsumed/IncKafkaProduced/
// SetKafkaLag as messages flow.
func NewRegistry(stats *reactor.Stats) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		activeConnections: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "netrunner_reactor_active_connections",
			Help: "Connections currently tracked by the reactor.",
		}, func() float64 { return float64(stats.ActiveConnections) }),
		http1Served: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "netrunner_reactor_http1_requests_total",
			Help: "HTTP/1.1 requests served.",
		}, func() float64 { return float64(stats.HTTP1Served) }),
		http2Preface: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "netrunner_reactor_http2_preface_total",
			Help: "HTTP/2 preface handshakes handled.",
		}, func() float64 { return float64(stats.HTTP2Preface) }),
		rejected: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "netrunner_reactor_rejected_connections_total",
			Help: "Connections rejected for exceeding the configured max.",
		}, func() float64 { return float64(stats.Rejected) }),
		kafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netrunner_kafka_messages_consumed_total",
			Help: "Messages dispatched to consumer handlers.",
		}),
		kafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netrunner_kafka_messages_produced_total",
			Help: "Messages handed to the producer.",
		}),
		kafkaConsumerLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netrunner_kafka_consumer_lag",
			Help: "Approximate consumer lag per topic/partition.",
		}, []string{"topic", "partition"}),
	}

	reg.MustRegister(
		r.activeConnections, r.http1Served, r.http2Preface, r.rejected,
		r.kafkaMessagesConsumed, r.kafkaMessagesProduced, r.kafkaConsumerLag,
	)
	return r
}

// IncKafkaConsumed increments the consumed-message counter.
func (r *Registry) IncKafkaConsumed() { r.kafkaMessagesConsumed.Inc() }

// IncKafkaProduced increments the produced-message counter.
func (r *Registry) IncKafkaProduced() { r.kafkaMessagesProduced.Inc() }

// SetKafkaLag records the lag observed for one topic/partition.
func (r *Registry) SetKafkaLag(topic string, partition int32, lag float64) {
	r.kafkaConsumerLag.WithLabelValues(topic, fmt.Sprint(partition)).Set(lag)
}

// Start binds a plain HTTP listener on port serving /metrics in the
// background. Errors are logged rather than returned, matching the
// fire-and-forget style of the original metrics listener.
func (r *Registry) Start(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	r.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	listener, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		logx.Error.Print("metrics: ", err)
		return
	}

	go func() {
		if err := r.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logx.Error.Print("metrics: ", err)
		}
	}()
}

// Stop shuts down the metrics HTTP listener, if started.
func (r *Registry) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
