package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storydive/internal/models"
)

func TestExtractDirectives_SingleTag(t *testing.T) {
	state := models.StateMap{"체력": 100}

	got := ExtractDirectives("그는 싸웠다. [SYSTEM_UPDATE: 체력-5]", state, zap.NewNop())

	assert.Equal(t, "그는 싸웠다.", got.Cleaned)
	require.Len(t, got.Accepted, 1)
	assert.Equal(t, "체력", got.Accepted[0].Name)
	assert.Equal(t, models.OpSub, got.Accepted[0].Op)
	assert.Equal(t, 5.0, got.Accepted[0].Value)
	assert.Empty(t, got.Rejected)
}

func TestExtractDirectives_MultipleTags(t *testing.T) {
	state := models.StateMap{"체력": 50, "골드": 20}
	text := "[SYSTEM_UPDATE: 체력+10] 승리했다. [SYSTEM_UPDATE: 골드+30] 보상을 받았다."

	got := ExtractDirectives(text, state, zap.NewNop())

	assert.Equal(t, "승리했다. 보상을 받았다.", got.Cleaned)
	require.Len(t, got.Accepted, 2)
	assert.Equal(t, "체력", got.Accepted[0].Name)
	assert.Equal(t, "골드", got.Accepted[1].Name)
}

func TestExtractDirectives_UndeclaredNameRejected(t *testing.T) {
	state := models.StateMap{}

	got := ExtractDirectives("[SYSTEM_UPDATE: 알수없음+10]", state, zap.NewNop())

	assert.Equal(t, "", got.Cleaned)
	assert.Empty(t, got.Accepted)
	require.Len(t, got.Rejected, 1)
	assert.Equal(t, "알수없음", got.Rejected[0].Name)
	assert.Empty(t, state, "rejected directive must not introduce keys")
}

func TestExtractDirectives_MalformedValueStripped(t *testing.T) {
	state := models.StateMap{"체력": 10}

	got := ExtractDirectives("상처를 입었다. [SYSTEM_UPDATE: 체력-많이]", state, zap.NewNop())

	assert.Equal(t, "상처를 입었다.", got.Cleaned)
	assert.Empty(t, got.Accepted)
	require.Len(t, got.Rejected, 1)
}

func TestExtractDirectives_SetOperator(t *testing.T) {
	state := models.StateMap{"마나": 40}

	got := ExtractDirectives("[SYSTEM_UPDATE: 마나 = 100] 마나가 회복되었다.", state, zap.NewNop())

	require.Len(t, got.Accepted, 1)
	assert.Equal(t, models.OpSet, got.Accepted[0].Op)
	assert.Equal(t, 100.0, got.Accepted[0].Value)
	assert.Equal(t, "마나가 회복되었다.", got.Cleaned)
}

func TestExtractDirectives_DecimalAndSignedValues(t *testing.T) {
	state := models.StateMap{"평판": 0}

	got := ExtractDirectives("[SYSTEM_UPDATE: 평판+2.5]", state, zap.NewNop())

	require.Len(t, got.Accepted, 1)
	assert.Equal(t, 2.5, got.Accepted[0].Value)
}

func TestExtractDirectives_SourceTagVerbatim(t *testing.T) {
	state := models.StateMap{"체력": 1}

	got := ExtractDirectives("x [SYSTEM_UPDATE: 체력 + 3] y", state, zap.NewNop())

	require.Len(t, got.Accepted, 1)
	assert.Equal(t, "[SYSTEM_UPDATE: 체력 + 3]", got.Accepted[0].SourceTag)
}

func TestExtractDirectives_Idempotent(t *testing.T) {
	state := models.StateMap{"체력": 100}

	first := ExtractDirectives("전투. [SYSTEM_UPDATE: 체력-5]", state, zap.NewNop())
	second := ExtractDirectives(first.Cleaned, state, zap.NewNop())

	assert.Equal(t, first.Cleaned, second.Cleaned)
	assert.Empty(t, second.Accepted)
	assert.Empty(t, second.Rejected)
}

func TestExtractDirectives_NoTags(t *testing.T) {
	state := models.StateMap{"체력": 100}
	text := "평화로운 하루였다."

	got := ExtractDirectives(text, state, zap.NewNop())

	assert.Equal(t, text, got.Cleaned)
	assert.Empty(t, got.Accepted)
	assert.Empty(t, got.Rejected)
}
