package daemon

import (
	"sharesync/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharesync_runs_total",
		Help: "Engine runs triggered by the daemon.",
	})

	filesSyncedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharesync_files_synced_total",
		Help: "Files copied, labelled by direction.",
	}, []string{"direction"})

	conflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharesync_conflicts_total",
		Help: "Conflicts resolved during daemon runs.",
	})

	failuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharesync_failures_total",
		Help: "Mapping failures during daemon runs.",
	})
)

func recordMetrics(results []model.PackageResult) {
	runsTotal.Inc()

	for _, r := range results {
		for _, o := range r.Outcomes {
			filesSyncedTotal.WithLabelValues("to_shared").Add(float64(len(o.FilesToShared)))
			filesSyncedTotal.WithLabelValues("from_shared").Add(float64(len(o.FilesFromShared)))
			conflictsTotal.Add(float64(len(o.ConflictsResolved)))
			if !o.Success {
				failuresTotal.Inc()
			}
		}
	}
}
