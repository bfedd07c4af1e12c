package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storydive/internal/models"
)

func TestApplyDirective_AddSubSet(t *testing.T) {
	state := models.StateMap{"체력": 100, "골드": 20}

	v, ok := ApplyDirective(state, models.Directive{Name: "체력", Op: models.OpSub, Value: 5})
	require.True(t, ok)
	assert.Equal(t, 95.0, v)

	v, ok = ApplyDirective(state, models.Directive{Name: "골드", Op: models.OpAdd, Value: 30})
	require.True(t, ok)
	assert.Equal(t, 50.0, v)

	v, ok = ApplyDirective(state, models.Directive{Name: "체력", Op: models.OpSet, Value: 1})
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestApplyDirective_UnknownKeyIsNoop(t *testing.T) {
	state := models.StateMap{"체력": 100}

	_, ok := ApplyDirective(state, models.Directive{Name: "마나", Op: models.OpAdd, Value: 5})

	assert.False(t, ok)
	assert.Equal(t, models.StateMap{"체력": 100}, state)
}

func TestApplyDirective_NegativeResultAllowed(t *testing.T) {
	state := models.StateMap{"체력": 3}

	v, ok := ApplyDirective(state, models.Directive{Name: "체력", Op: models.OpSub, Value: 5})

	require.True(t, ok)
	assert.Equal(t, -2.0, v)
}

func TestProcessor_Apply(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())
	state := models.StateMap{"체력": 3, "골드": 10}

	// requested -1 on a health-like value is raised to the minimum of 5
	cleaned, applied, rejected := p.Apply("습격당했다. [SYSTEM_UPDATE: 체력-1] [SYSTEM_UPDATE: 명예+2]", state)

	assert.Equal(t, "습격당했다.", cleaned)
	assert.Equal(t, map[string]float64{"체력": -2}, applied)
	require.Len(t, rejected, 1)
	assert.Equal(t, "명예", rejected[0].Name)
	assert.Equal(t, models.StateMap{"체력": -2, "골드": 10}, state)
}

func TestProcessor_Apply_SetIsLiteral(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())
	state := models.StateMap{"체력": 50}

	_, applied, _ := p.Apply("[SYSTEM_UPDATE: 체력=1]", state)

	assert.Equal(t, map[string]float64{"체력": 1}, applied)
	assert.Equal(t, 1.0, state["체력"])
}

func TestProcessor_Apply_KeySetNeverGrows(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())
	state := models.StateMap{}

	cleaned, applied, rejected := p.Apply("[SYSTEM_UPDATE: 알수없음+10]", state)

	assert.Equal(t, "", cleaned)
	assert.Empty(t, applied)
	assert.Len(t, rejected, 1)
	assert.Empty(t, state)
}
