package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storekeeper/internal/domain/entity"
)

func TestParseType(t *testing.T) {
	typ, err := ParseType("sale-items")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleItems, typ)

	_, err = ParseType("widgets")
	assert.ErrorIs(t, err, entity.ErrUnknownType)
	assert.Contains(t, err.Error(), "products")
}

func TestParseData(t *testing.T) {
	rec, err := ParseData(`{"name":"Rice","quantity":3}`)
	require.NoError(t, err)
	assert.Equal(t, "Rice", rec.String("name"))
	assert.Equal(t, "3", rec.String("quantity"))

	_, err = ParseData("")
	assert.Error(t, err)

	_, err = ParseData("[1,2]")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Моло...", Truncate("Молоко пастеризованное", 7))
}
