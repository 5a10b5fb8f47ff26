package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blog"

// Metrics 는 API 서버가 노출하는 prometheus 수집기 묶음이다.
// nil 리시버에서도 안전하게 호출할 수 있어 테스트에서는 nil 을 넘긴다.
type Metrics struct {
	PostsCreated             prometheus.Counter
	PostsUpdated             prometheus.Counter
	PostsDeleted             prometheus.Counter
	AttachmentsStored        prometheus.Counter
	AttachmentDeleteFailures prometheus.Counter
	ChatTokens               *prometheus.CounterVec
	HTTPRequestDuration      *prometheus.HistogramVec
}

// New 는 수집기를 만들고 reg 에 등록한다. reg 가 nil 이면 등록하지 않는다.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Number of posts created.",
		}),
		PostsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_updated_total",
			Help:      "Number of posts updated.",
		}),
		PostsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_deleted_total",
			Help:      "Number of posts deleted.",
		}),
		AttachmentsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_stored_total",
			Help:      "Number of attachment files written to the store.",
		}),
		AttachmentDeleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_delete_failures_total",
			Help:      "Attachment files that could not be removed while deleting a post.",
		}),
		ChatTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_tokens_total",
			Help:      "Tokens consumed by the chat proxy.",
		}, []string{"model", "direction"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.PostsCreated,
			m.PostsUpdated,
			m.PostsDeleted,
			m.AttachmentsStored,
			m.AttachmentDeleteFailures,
			m.ChatTokens,
			m.HTTPRequestDuration,
		)
	}
	return m
}

func (m *Metrics) IncPostsCreated() {
	if m != nil {
		m.PostsCreated.Inc()
	}
}

func (m *Metrics) IncPostsUpdated() {
	if m != nil {
		m.PostsUpdated.Inc()
	}
}

func (m *Metrics) IncPostsDeleted() {
	if m != nil {
		m.PostsDeleted.Inc()
	}
}

func (m *Metrics) AddAttachmentsStored(n int) {
	if m != nil && n > 0 {
		m.AttachmentsStored.Add(float64(n))
	}
}

func (m *Metrics) IncAttachmentDeleteFailures() {
	if m != nil {
		m.AttachmentDeleteFailures.Inc()
	}
}

func (m *Metrics) AddChatTokens(model string, input, output int32) {
	if m == nil {
		return
	}
	m.ChatTokens.WithLabelValues(model, "input").Add(float64(input))
	m.ChatTokens.WithLabelValues(model, "output").Add(float64(output))
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
