package prometheus

import (
	"context"
	"time"

	"github.com/fyerfyer/fyer-docstore/docstore"
	"github.com/prometheus/client_golang/prometheus"
)

type MiddlewareBuilder struct {
	NameSpace string
	Name      string
	SubSystem string
	Help      string
	// Registerer 为空时不注册指标
	Registerer prometheus.Registerer
}

func (m *MiddlewareBuilder) Build() docstore.Middleware {
	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Help:      m.Help,
		Namespace: m.NameSpace,
		Subsystem: m.SubSystem,
		Objectives: map[float64]float64{
			0.5:   0.05,
			0.9:   0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{"query_type", "status"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      m.Name + "_callback_failures_total",
		Help:      "Number of callback failures reported while post-processing batch commands.",
		Namespace: m.NameSpace,
		Subsystem: m.SubSystem,
	}, []string{"query_type"})

	if m.Registerer != nil {
		m.Registerer.MustRegister(vec, failures)
	}

	return func(next docstore.Handler) docstore.Handler {
		return docstore.HandlerFunc(func(ctx context.Context, cc *docstore.CommandContext) error {
			startTime := time.Now()
			err := next.HandleCommand(ctx, cc)

			status := "ok"
			if err != nil {
				status = "error"
			}
			duration := time.Since(startTime).Microseconds()
			vec.WithLabelValues(cc.QueryType, status).Observe(float64(duration))
			if n := len(cc.Failures); n > 0 {
				failures.WithLabelValues(cc.QueryType).Add(float64(n))
			}
			return err
		})
	}
}
