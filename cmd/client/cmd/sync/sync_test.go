package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storekeeper/internal/domain/entity"
)

func TestBar(t *testing.T) {
	assert.Equal(t, "[..........]", bar(0, 10))
	assert.Equal(t, "[#####.....]", bar(50, 10))
	assert.Equal(t, "[##########]", bar(150, 10))
	assert.Equal(t, "[..........]", bar(-5, 10))
}

func TestParseTypes(t *testing.T) {
	got, err := parseTypes([]string{"products", "sale-returns"})
	require.NoError(t, err)
	assert.Equal(t, []entity.Type{entity.Products, entity.SaleReturns}, got)

	_, err = parseTypes([]string{"nope"})
	assert.ErrorIs(t, err, entity.ErrUnknownType)
}
