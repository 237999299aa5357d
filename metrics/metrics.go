package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/galemire/elevator-dispatch/internal/constants"
)

const carIDLabel = constants.CarIDLabel

var (
	assignmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "assignment_duration_seconds",
			Help:      "Time taken by the scheduler to score candidates and choose a car for a hall call.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	fleetBusy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "car_busy",
			Help:      "1 if the car is currently serving an assignment, 0 otherwise.",
		},
		[]string{carIDLabel},
	)

	faultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "faults_total",
			Help:      "Count of injected faults observed per car, by fault code.",
		},
		[]string{carIDLabel, "fault"},
	)

	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "completions_total",
			Help:      "Count of completed hall-call requests per car.",
		},
		[]string{carIDLabel},
	)
)

func init() {
	prometheus.MustRegister(assignmentDuration, fleetBusy, faultsTotal, completionsTotal)
}

// ObserveAssignmentDuration records how long one assignment decision took.
func ObserveAssignmentDuration(seconds float64) {
	assignmentDuration.Observe(seconds)
}

// SetCarBusy records a car's busy flag as a 0/1 gauge.
func SetCarBusy(carID int, busy bool) {
	value := 0.0
	if busy {
		value = 1.0
	}
	fleetBusy.With(prometheus.Labels{carIDLabel: strconv.Itoa(carID)}).Set(value)
}

// IncFault records an injected fault for a car.
func IncFault(carID int, fault int) {
	faultsTotal.With(prometheus.Labels{
		carIDLabel: strconv.Itoa(carID),
		"fault":    strconv.Itoa(fault),
	}).Inc()
}

// IncCompletion records a completed hall-call request for a car.
func IncCompletion(carID int) {
	completionsTotal.With(prometheus.Labels{carIDLabel: strconv.Itoa(carID)}).Inc()
}
