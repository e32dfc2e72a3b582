package imaging

import "github.com/prometheus/client_golang/prometheus"

func (o *PrometheusObserver) Validations() *prometheus.CounterVec    { return o.validations }
func (o *PrometheusObserver) Normalizations() *prometheus.CounterVec { return o.normalizations }
