package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monishSR/vectordb/internal/vector"
)

func meta(kv ...any) map[string]vector.MetadataValue {
	m := make(map[string]vector.MetadataValue)
	for i := 0; i < len(kv); i += 2 {
		key := kv[i].(string)
		switch val := kv[i+1].(type) {
		case string:
			m[key] = vector.StringValue(val)
		case int:
			m[key] = vector.IntValue(int64(val))
		case bool:
			m[key] = vector.BoolValue(val)
		}
	}
	return m
}

func TestMatchesDirectEquality(t *testing.T) {
	m := meta("color", "red", "qty", 3)
	where := Where{"color": DirectValue(vector.StringValue("red"))}
	assert.True(t, Matches(m, where))

	where["color"] = DirectValue(vector.StringValue("blue"))
	assert.False(t, Matches(m, where))
}

func TestMatchesMissingFieldFails(t *testing.T) {
	m := meta("color", "red")
	where := Where{"size": DirectValue(vector.IntValue(1))}
	assert.False(t, Matches(m, where), "a clause on an absent field should never match")
}

func TestMatchesNe(t *testing.T) {
	m := meta("color", "red")
	ne := vector.StringValue("blue")
	where := Where{"color": OperatorValue(Operator{Ne: &ne})}
	assert.True(t, Matches(m, where))

	ne2 := vector.StringValue("red")
	where["color"] = OperatorValue(Operator{Ne: &ne2})
	assert.False(t, Matches(m, where))
}

func TestMatchesNeOnMissingFieldFails(t *testing.T) {
	m := meta("color", "red")
	ne := vector.StringValue("blue")
	where := Where{"size": OperatorValue(Operator{Ne: &ne})}
	assert.False(t, Matches(m, where), "$ne on an absent field should not match")
}

func TestMatchesIn(t *testing.T) {
	m := meta("color", "red")
	where := Where{"color": OperatorValue(Operator{
		In: []vector.MetadataValue{vector.StringValue("red"), vector.StringValue("green")},
	})}
	assert.True(t, Matches(m, where))

	where["color"] = OperatorValue(Operator{In: []vector.MetadataValue{vector.StringValue("green")}})
	assert.False(t, Matches(m, where))
}

func TestMatchesNin(t *testing.T) {
	m := meta("color", "red")
	where := Where{"color": OperatorValue(Operator{
		Nin: []vector.MetadataValue{vector.StringValue("green")},
	})}
	assert.True(t, Matches(m, where))

	where["color"] = OperatorValue(Operator{Nin: []vector.MetadataValue{vector.StringValue("red")}})
	assert.False(t, Matches(m, where))
}

func TestMatchesConjunctionAcrossFields(t *testing.T) {
	m := meta("color", "red", "in_stock", true)
	where := Where{
		"color":    DirectValue(vector.StringValue("red")),
		"in_stock": DirectValue(vector.BoolValue(true)),
	}
	assert.True(t, Matches(m, where))

	where["in_stock"] = DirectValue(vector.BoolValue(false))
	assert.False(t, Matches(m, where), "one mismatching clause should fail the whole filter")
}

func TestEmptyWhereMatchesEverything(t *testing.T) {
	assert.True(t, Matches(meta(), Where{}))
	assert.True(t, Matches(meta("a", "b"), Where{}))
}

func TestValueJSONDirectAndOperator(t *testing.T) {
	var direct Value
	require.NoError(t, json.Unmarshal([]byte(`"red"`), &direct))
	assert.False(t, direct.IsOperator)
	assert.Equal(t, "red", direct.Direct.Str)

	var op Value
	require.NoError(t, json.Unmarshal([]byte(`{"$in": ["a", "b"]}`), &op))
	require.True(t, op.IsOperator)
	assert.Len(t, op.Op.In, 2)

	data, err := json.Marshal(op)
	require.NoError(t, err)
	var roundTripped Value
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	assert.True(t, roundTripped.IsOperator)
	assert.Len(t, roundTripped.Op.In, 2)
}

func TestValueJSONEmptyOperatorObjectErrors(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{}`), &v))
}
