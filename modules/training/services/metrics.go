package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

var (
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "training",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Total number of source rows processed broken down by sheet and outcome.",
	}, []string{"sheet", "outcome"})

	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "training",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Total number of reload runs broken down by source and result.",
	}, []string{"source", "result"})

	importResequence = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "training",
		Subsystem: "import",
		Name:      "resequence_total",
		Help:      "Total number of post-commit id resequencing attempts broken down by table and result.",
	}, []string{"table", "result"})

	importProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "training",
		Subsystem: "import",
		Name:      "identities_provisioned_total",
		Help:      "Total number of user accounts created for unknown employee ids.",
	})

	importLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "training",
		Subsystem: "import",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful reload per source.",
	}, []string{"source"})
)

func recordSheetRows(b sheetBatch) {
	importRows.WithLabelValues(b.Sheet, "accepted").Add(float64(b.Rows - len(b.Rejections)))
	importRows.WithLabelValues(b.Sheet, "rejected").Add(float64(len(b.Rejections)))
}

func recordRun(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if fatal, ok := asFatal(err); ok {
			result = string(fatal.Kind)
		}
	}
	importRuns.WithLabelValues(source, result).Inc()
}

func recordResequence(table domain.Table, result string) {
	importResequence.WithLabelValues(string(table), result).Inc()
}

func recordProvisioned(n int) {
	importProvisioned.Add(float64(n))
}
