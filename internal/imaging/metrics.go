package imaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by an Observer.
const (
	OutcomeOK              = "ok"
	OutcomeReused          = "reused"
	OutcomeRejected        = "rejected"
	OutcomeTransformFailed = "transform_failed"
	OutcomeTooComplex      = "too_complex"
)

// Observer captures telemetry for normalizer operations.
type Observer interface {
	RecordValidation(valid bool)
	RecordNormalize(outcome string, duration time.Duration, sizeBytes int64)
}

type nopObserver struct{}

func (nopObserver) RecordValidation(bool)                        {}
func (nopObserver) RecordNormalize(string, time.Duration, int64) {}

// PrometheusObserver exports normalizer metrics to Prometheus.
type PrometheusObserver struct {
	validations    *prometheus.CounterVec
	normalizations *prometheus.CounterVec
	duration       prometheus.Histogram
	encodedBytes   prometheus.Histogram
}

// NewPrometheusObserver registers the normalizer metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "cinelist"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "imaging",
			Name:      "validations_total",
			Help:      "Source candidates checked, by result.",
		}, []string{"result"}),
		normalizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "imaging",
			Name:      "normalizations_total",
			Help:      "Normalize calls, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "imaging",
			Name:      "normalize_duration_seconds",
			Help:      "Time spent in the transform primitive and size check.",
			Buckets:   prometheus.DefBuckets,
		}),
		encodedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "imaging",
			Name:      "encoded_payload_bytes",
			Help:      "Base64 payload length of accepted images.",
			Buckets:   prometheus.ExponentialBuckets(4*1024, 2, 8),
		}),
	}

	if err := register(reg, &o.validations); err != nil {
		return nil, err
	}
	if err := register(reg, &o.normalizations); err != nil {
		return nil, err
	}
	if err := register(reg, &o.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.encodedBytes); err != nil {
		return nil, err
	}
	return o, nil
}

// register adds *c to reg, swapping in the existing collector when an
// identical one was registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register imaging metric: %w", err)
	}
	return nil
}

func (o *PrometheusObserver) RecordValidation(valid bool) {
	if o == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "rejected"
	}
	o.validations.WithLabelValues(result).Inc()
}

func (o *PrometheusObserver) RecordNormalize(outcome string, duration time.Duration, sizeBytes int64) {
	if o == nil {
		return
	}
	o.normalizations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeReused {
		return
	}
	o.duration.Observe(duration.Seconds())
	if outcome == OutcomeOK {
		o.encodedBytes.Observe(float64(sizeBytes))
	}
}
