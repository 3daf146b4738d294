package analyze

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/controlenotas/notas-api/internal/domain/extract"
)

var (
	documentsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notas_documents_processed_total",
		Help: "Documents handed to the extraction engine.",
	})
	invoicesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notas_invoices_extracted_total",
		Help: "Invoices produced by extraction runs.",
	})
	productsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notas_products_extracted_total",
		Help: "Products produced by extraction runs.",
	})
	demoFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notas_demo_fallbacks_total",
		Help: "Runs that degraded to the demo dataset.",
	})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notas_analyze_run_seconds",
		Help:    "Wall-clock duration of full extraction runs.",
		Buckets: prometheus.DefBuckets,
	})
)

func observeRun(result extract.Result, documents int, took time.Duration) {
	documentsProcessed.Add(float64(documents))
	invoicesExtracted.Add(float64(len(result.Invoices)))
	productsExtracted.Add(float64(len(result.Products)))
	if result.Mode == extract.ModeDemo {
		demoFallbacks.Inc()
	}
	runDuration.Observe(took.Seconds())
}
