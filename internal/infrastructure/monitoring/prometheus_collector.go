package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector aggregates the platform's Prometheus metrics.
type Collector struct {
	sessionsConnected prometheus.Gauge
	activeRooms       prometheus.Gauge
	socketEvents      *prometheus.CounterVec
	chatMessages      prometheus.Counter
	chatFiles         prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		sessionsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aulanet_sessions_connected",
			Help: "Number of currently connected socket sessions",
		}),
		activeRooms: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aulanet_rooms_active",
			Help: "Number of rooms with at least one member",
		}),
		socketEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aulanet_socket_events_total",
			Help: "Socket events processed by event name",
		}, []string{"event"}),
		chatMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aulanet_chat_messages_total",
			Help: "Chat text messages stored",
		}),
		chatFiles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aulanet_chat_files_total",
			Help: "Chat file attachments stored",
		}),
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aulanet_http_requests_total",
			Help: "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aulanet_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (c *Collector) SessionConnected()    { c.sessionsConnected.Inc() }
func (c *Collector) SessionDisconnected() { c.sessionsConnected.Dec() }

func (c *Collector) SetActiveRooms(n int) { c.activeRooms.Set(float64(n)) }

func (c *Collector) SocketEvent(event string) { c.socketEvents.WithLabelValues(event).Inc() }

func (c *Collector) ChatMessageStored() { c.chatMessages.Inc() }
func (c *Collector) ChatFileStored()    { c.chatFiles.Inc() }

func (c *Collector) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, path, status).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
