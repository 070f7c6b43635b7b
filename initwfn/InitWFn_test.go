package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWFnJSON(t *testing.T) {
	inits := []func() (*InitWFn, error){
		func() (*InitWFn, error) { return NewGlorotU(1.0) },
		func() (*InitWFn, error) { return NewHeN(2.0) },
		func() (*InitWFn, error) { return NewConstant(0.5) },
		NewZeroes,
	}

	for _, create := range inits {
		init, err := create()
		require.NoError(t, err)

		data, err := json.Marshal(init)
		require.NoError(t, err)

		var decoded InitWFn
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, init.Type, decoded.Type)
		require.Equal(t, init.Config, decoded.Config)
		require.NotNil(t, decoded.InitWFn())
	}
}

func TestInitWFnMissingConfig(t *testing.T) {
	var init InitWFn
	require.NoError(t, json.Unmarshal([]byte(`{"Type": "Zeroes"}`), &init))
	require.Equal(t, Zeroes, init.Type)

	require.Error(t, json.Unmarshal([]byte(`{"Type": "Sparse"}`), &init))
}

func TestInitWFnParameters(t *testing.T) {
	_, err := NewGlorotU(0)
	require.Error(t, err)
	_, err = NewHeU(-1)
	require.Error(t, err)
	_, err = NewGlorotN(math.Inf(1))
	require.Error(t, err)
	_, err = NewConstant(math.NaN())
	require.Error(t, err)

	var init InitWFn
	require.Error(t, json.Unmarshal(
		[]byte(`{"Type": "HeN", "Config": {"Gain": 0}}`), &init))
	require.NoError(t, json.Unmarshal(
		[]byte(`{"Type": "HeN", "Config": {"Gain": 2}}`), &init))
	require.Equal(t, HeNConfig{Gain: 2}, init.Config)
}

func TestInitWFnHiddenLayers(t *testing.T) {
	glorot, err := NewGlorotN(1)
	require.NoError(t, err)
	require.NoError(t, glorot.Validate([]int{100, 20}))
	require.NoError(t, glorot.Validate(nil))
	require.Error(t, glorot.Validate([]int{100, 0}))

	for _, create := range []func() (*InitWFn, error){
		NewZeroes,
		NewOnes,
		func() (*InitWFn, error) { return NewConstant(0.1) },
	} {
		init, err := create()
		require.NoError(t, err)
		require.NoError(t, init.Validate(nil), "%v", init.Type)
		require.Error(t, init.Validate([]int{16}), "%v", init.Type)
	}
}
