package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rescansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "langsync_rescans_total",
		Help: "Component rescans by outcome.",
	}, []string{"outcome"})
	rescanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "langsync_rescan_duration_seconds",
		Help:    "Duration of component rescans.",
		Buckets: prometheus.DefBuckets,
	})
	translationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "langsync_translations_created_total",
		Help: "Translations created by rescans and approved admissions.",
	})
	translationsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "langsync_translations_removed_total",
		Help: "Translations removed by rescans and explicit removal.",
	})
	unresolvableCodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "langsync_unresolvable_codes_total",
		Help: "Discovered files whose code matched no known language.",
	})
)
