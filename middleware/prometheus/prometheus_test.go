package prometheus

import (
	"context"
	"errors"
	"testing"

	"github.com/fyerfyer/fyer-docstore/docstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareBuilder_Build(t *testing.T) {
	registry := prometheus.NewRegistry()
	mdl := (&MiddlewareBuilder{
		NameSpace:  "fyer",
		SubSystem:  "docstore",
		Name:       "batch_command",
		Help:       "batch command latency",
		Registerer: registry,
	}).Build()

	errBoom := errors.New("boom")
	calls := 0
	h := mdl(docstore.HandlerFunc(func(ctx context.Context, cc *docstore.CommandContext) error {
		calls++
		if calls == 2 {
			return errBoom
		}
		cc.Failures = append(cc.Failures, errors.New("a"), errors.New("b"))
		return nil
	}))

	require.NoError(t, h.HandleCommand(context.Background(), &docstore.CommandContext{QueryType: docstore.QueryTypeQuery}))
	assert.Same(t, errBoom, h.HandleCommand(context.Background(), &docstore.CommandContext{QueryType: docstore.QueryTypeExec}))

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]int)
	var failureTotal float64
	for _, mf := range families {
		byName[mf.GetName()] = len(mf.GetMetric())
		if mf.GetName() == "fyer_docstore_batch_command_callback_failures_total" {
			for _, m := range mf.GetMetric() {
				failureTotal += m.GetCounter().GetValue()
			}
		}
	}
	// query/ok 与 exec/error 两组标签
	assert.Equal(t, 2, byName["fyer_docstore_batch_command"])
	assert.Equal(t, 1, byName["fyer_docstore_batch_command_callback_failures_total"])
	assert.Equal(t, float64(2), failureTotal)
}
