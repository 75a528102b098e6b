package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStep(t *testing.T) {
	s := NewStep("you are a coder", "write a parser", []string{"use stdlib"}, 3)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusPending, s.Status)
	assert.Equal(t, 0, s.RetryCount)
	assert.Equal(t, 3, s.MaxRetries)
	assert.Equal(t, []string{"use stdlib"}, s.Requirements)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestStepRequirementsAppendOnly(t *testing.T) {
	s := NewStep("role", "desc", []string{"original constraint"}, 3)

	s.AppendRequirement("previous error: boom")
	s.AppendRequirement("fix hint: check input")

	require.Len(t, s.Requirements, 3)
	// The original constraint survives every append.
	assert.Equal(t, "original constraint", s.Requirements[0])
	assert.Equal(t, "fix hint: check input", s.Requirements[2])
}

func TestStepOutcomeExclusive(t *testing.T) {
	s := NewStep("role", "desc", nil, 3)

	s.MarkRunning()
	assert.Equal(t, StatusRunning, s.Status)

	s.MarkFailed("backend exploded")
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "backend exploded", s.Error)

	// A later success clears the stale error.
	s.MarkPending()
	s.MarkRunning()
	s.MarkCompleted("all good")
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, "all good", s.Result)
	assert.Empty(t, s.Error)
}

func TestCategoryKnown(t *testing.T) {
	for _, c := range KnownCategories() {
		assert.True(t, c.Known(), "category %s", c)
	}
	assert.False(t, Category("quantum").Known())
	assert.False(t, Category("").Known())
}

func TestNewPlan(t *testing.T) {
	p := NewPlan("build a todo app", 2)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "build a todo app", p.Task)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, 2, p.MaxPlanRetries)
	assert.Empty(t, p.Steps)
}
