package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// streamClients tracks open websocket streams.
var streamClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "notesync_stream_clients",
	Help: "Connected websocket stream clients",
})
