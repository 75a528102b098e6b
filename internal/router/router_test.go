package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/taskd/internal/plan"
)

func TestRouteKnownCategories(t *testing.T) {
	tests := []struct {
		category plan.Category
		want     ExecutorID
	}{
		{plan.CategoryLocal, ExecutorLocal},
		{plan.CategoryRemote, ExecutorRemote},
		{plan.CategoryGeneratedCode, ExecutorCodegen},
		{plan.CategoryPureText, ExecutorPureText},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.category, false))
		})
	}
}

func TestRouteFailsOpen(t *testing.T) {
	assert.Equal(t, ExecutorPureText, Route(plan.Category("quantum_mcp"), false))
	assert.Equal(t, ExecutorPureText, Route(plan.Category(""), false))
}

func TestRouteExhaustedPlan(t *testing.T) {
	// Exhaustion wins over any category value.
	assert.Equal(t, ExecutorNone, Route(plan.CategoryLocal, true))
	assert.Equal(t, ExecutorNone, Route(plan.Category(""), true))
}
