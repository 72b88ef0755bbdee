package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray{"clean", "modern"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["clean","modern"]`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringArray{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringArrayScan(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan([]byte(`["needs-review"]`)))
	assert.Equal(t, StringArray{"needs-review"}, a)

	require.NoError(t, a.Scan(`["a","b"]`))
	assert.Equal(t, StringArray{"a", "b"}, a)

	require.NoError(t, a.Scan(nil))
	assert.NotNil(t, a)
	assert.Empty(t, a)

	require.NoError(t, a.Scan("null"))
	assert.NotNil(t, a)
	assert.Empty(t, a)
}

func TestStringArrayScanRejectsNonArray(t *testing.T) {
	var a StringArray
	assert.Error(t, a.Scan([]byte(`"just-a-string"`)))
	assert.Error(t, a.Scan(42))
}
