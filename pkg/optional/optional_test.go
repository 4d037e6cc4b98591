package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSomeAndNone(t *testing.T) {
	v, ok := Some(4.5).Get()
	assert.True(t, ok)
	assert.Equal(t, 4.5, v)

	_, ok = None[float64]().Get()
	assert.False(t, ok)

	var zero Value[float64]
	assert.False(t, zero.IsPresent())
}

func TestFromPtrAndPtr(t *testing.T) {
	assert.False(t, FromPtr[float64](nil).IsPresent())

	x := 3.0
	o := FromPtr(&x)
	require.True(t, o.IsPresent())

	p := o.Ptr()
	require.NotNil(t, p)
	*p = 10
	// Ptr hands out a copy
	assert.Equal(t, 3.0, o.OrElse(0))
	assert.Nil(t, None[int]().Ptr())
}

func TestOrElse(t *testing.T) {
	assert.Equal(t, 1, Some(1).OrElse(7))
	assert.Equal(t, 7, None[int]().OrElse(7))
}

func TestFilter(t *testing.T) {
	positive := func(v float64) bool { return v > 0 }
	assert.True(t, Some(1.0).Filter(positive).IsPresent())
	assert.False(t, Some(-1.0).Filter(positive).IsPresent())
	assert.False(t, None[float64]().Filter(positive).IsPresent())
}

func TestMapAndFlatMap(t *testing.T) {
	double := func(v float64) float64 { return v * 2 }
	assert.Equal(t, 8.0, Map(Some(4.0), double).OrElse(0))
	assert.False(t, Map(None[float64](), double).IsPresent())

	nonZero := func(v float64) Value[float64] {
		if v == 0 {
			return None[float64]()
		}
		return Some(1 / v)
	}
	assert.Equal(t, 0.5, FlatMap(Some(2.0), nonZero).OrElse(0))
	assert.False(t, FlatMap(Some(0.0), nonZero).IsPresent())
}

func TestZipWith(t *testing.T) {
	diff := func(a, b float64) float64 { return b - a }

	assert.Equal(t, -5.0, ZipWith(Some(10.0), Some(5.0), diff).OrElse(0))
	assert.False(t, ZipWith(None[float64](), Some(5.0), diff).IsPresent())
	assert.False(t, ZipWith(Some(10.0), None[float64](), diff).IsPresent())
}

func TestJSON(t *testing.T) {
	type payload struct {
		Power Value[float64] `json:"power"`
		Label Value[string]  `json:"label"`
	}

	data, err := json.Marshal(payload{Power: Some(5.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"power":5.5,"label":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"power":null,"label":"x"}`), &decoded))
	assert.False(t, decoded.Power.IsPresent())
	assert.Equal(t, "x", decoded.Label.OrElse(""))

	require.NoError(t, json.Unmarshal([]byte(`{}`), &decoded))
	assert.False(t, decoded.Power.IsPresent())

	assert.Error(t, json.Unmarshal([]byte(`{"power":"abc"}`), &decoded))
}

func TestMarshalYAML(t *testing.T) {
	v, err := None[int]().MarshalYAML()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Some(3).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
