package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatfeed_pages_served_total",
		Help: "Message pages served to feed clients.",
	})

	MutationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatfeed_mutations_failed_total",
		Help: "Remote mutations that returned an error.",
	}, []string{"kind"})

	MessagesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatfeed_messages_created_total",
		Help: "Messages accepted by the store.",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatfeed_ws_clients",
		Help: "Currently connected websocket clients.",
	})
)
