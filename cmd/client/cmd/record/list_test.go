package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"saleId=s1", "type=supplier"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"saleId": "s1", "type": "supplier"}, got)

	got, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseFilters([]string{"broken"})
	assert.Error(t, err)

	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
}
