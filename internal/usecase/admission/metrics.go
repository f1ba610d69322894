package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "langsync_admissions_total",
	Help: "New language admissions by verdict.",
}, []string{"verdict"})
