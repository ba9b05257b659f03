package notesync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mutationTotal counts gateway mutations by operation and result.
	mutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesync_mutation_total",
		Help: "Optimistic mutations by operation and result",
	}, []string{"operation", "result"})

	// rollbackTotal counts local rollbacks after a rejected persistence call.
	rollbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesync_rollback_total",
		Help: "Local rollbacks after a failed persistence call",
	}, []string{"operation"})

	// historyTotal counts undo/redo attempts by command kind and result.
	historyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesync_history_total",
		Help: "Undo and redo attempts by command kind and result",
	}, []string{"action", "kind", "result"})

	// feedEventTotal counts change feed events by op and outcome.
	feedEventTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesync_feed_event_total",
		Help: "Change feed events by operation and reconciliation outcome",
	}, []string{"op", "outcome"})

	// divergenceTotal counts failed re-queries after a failed undo/redo.
	divergenceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notesync_divergence_total",
		Help: "Failed authoritative re-queries that may leave the local view diverged",
	})
)

const (
	resultOK     = "ok"
	resultFailed = "failed"
	// resultLanded marks a call that returned an error although the
	// backend re-read shows its change was committed.
	resultLanded = "landed"
)
