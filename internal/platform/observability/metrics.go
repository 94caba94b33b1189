package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_messages_ingested_total",
		Help: "The total number of raw messages stored by source",
	}, []string{"source"})

	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_messages_rejected_total",
		Help: "Messages dropped by record validation",
	}, []string{"source"})

	SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_source_errors_total",
		Help: "Failed source fetches",
	}, []string{"source"})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_analyses_total",
		Help: "Content analyses by risk level",
	}, []string{"risk_level"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threat_analysis_duration_seconds",
		Help:    "Duration of one message analysis including extraction",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	BotVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_bot_verdicts_total",
		Help: "Bot detections by verdict",
	}, []string{"verdict"})

	OCRFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threat_ocr_failures_total",
		Help: "Images whose text could not be recognized",
	})

	GraphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threat_graph_build_duration_seconds",
		Help:    "Duration of a full linkage graph rebuild",
		Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30, 60},
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "threat_graph_nodes",
		Help: "Accounts in the last linkage graph",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "threat_graph_edges",
		Help: "Connections in the last linkage graph",
	})

	GraphDensity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "threat_graph_density",
		Help: "Density of the last linkage graph",
	})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_alerts_emitted_total",
		Help: "Alerts raised by type",
	}, []string{"alert_type"})

	NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_notify_failures_total",
		Help: "Alert deliveries that failed by sink",
	}, []string{"sink"})

	PipelineProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threat_pipeline_processed_total",
		Help: "The total number of messages processed by the pipeline",
	}, []string{"status"})

	PipelineBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "threat_pipeline_backlog_size",
		Help: "Number of unprocessed raw messages in the database",
	})

	PipelineBatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threat_pipeline_batch_duration_seconds",
		Help:    "Duration in seconds to process a pipeline batch",
		Buckets: []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60},
	})
)
