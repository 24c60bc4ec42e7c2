// Package metrics exposes Prometheus series for the manual loop:
//
//	manualexec_operations_total{operation,decision}  every pipeline call by outcome
//	manualexec_stage{stage}                           1 for the current derived stage, 0 otherwise
//	manualexec_record_version{plan_id}                latest record version per plan
//	manualexec_store_writes_total{doc_type,result}    document store puts
//
// Series are registered in init() and served on /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"manualexec/internal/models"
)

var (
	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manualexec_operations_total",
			Help: "Pipeline operations by outcome",
		},
		[]string{"operation", "decision"},
	)

	stage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "manualexec_stage",
			Help: "Current manual loop stage (one series set to 1)",
		},
		[]string{"stage"},
	)

	recordVersion = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "manualexec_record_version",
			Help: "Latest manual execution record version per plan",
		},
		[]string{"plan_id"},
	)

	storeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manualexec_store_writes_total",
			Help: "Document store writes by type and result",
		},
		[]string{"doc_type", "result"},
	)
)

func init() {
	prometheus.MustRegister(operations, stage)
	prometheus.MustRegister(recordVersion, storeWrites)
}

func ObserveOperation(operation, decision string) {
	operations.WithLabelValues(operation, decision).Inc()
}

// SetStage flips the stage series so exactly one is 1.
func SetStage(current models.Stage) {
	for _, s := range models.AllStages {
		v := 0.0
		if s == current {
			v = 1
		}
		stage.WithLabelValues(string(s)).Set(v)
	}
}

func SetRecordVersion(planID string, version int) {
	recordVersion.WithLabelValues(planID).Set(float64(version))
}

func ObserveStoreWrite(docType models.DocType, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeWrites.WithLabelValues(string(docType), result).Inc()
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
