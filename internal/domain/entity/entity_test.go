package entity

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Validate(t *testing.T) {
	for _, typ := range All() {
		assert.NoError(t, typ.Validate(), typ)
	}

	err := Type("widgets").Validate()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestType_ResourceRoundTrip(t *testing.T) {
	seen := make(map[Resource]bool)
	for _, typ := range All() {
		res := typ.Resource()
		require.NotEmpty(t, res, typ)
		assert.False(t, seen[res], "duplicate resource %s", res)
		seen[res] = true

		back, err := res.Type()
		require.NoError(t, err)
		assert.Equal(t, typ, back)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{in: "saleItems", want: SaleItems},
		{in: "sale-items", want: SaleItems},
		{in: "bulk-purchases", want: BulkPurchases},
		{in: "products", want: Products},
		{in: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownType)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribe_AlwaysOnline(t *testing.T) {
	for _, typ := range All() {
		d := Describe(typ)
		switch typ {
		case Branches, Employees:
			assert.True(t, d.AlwaysOnline, typ)
			assert.False(t, d.IsLocal(), typ)
		default:
			assert.False(t, d.AlwaysOnline, typ)
		}
	}
}

func TestDescribe_Relations(t *testing.T) {
	sales := Describe(Sales)
	require.NotNil(t, sales.Counterparty)
	assert.Equal(t, "contactId", sales.Counterparty.Field)
	assert.Equal(t, "contact", sales.Counterparty.Key)
	require.NotNil(t, sales.Items)
	assert.Equal(t, SaleItems, sales.Items.Type)
	assert.Equal(t, "saleId", sales.Items.ParentField)

	purchases := Describe(BulkPurchases)
	require.NotNil(t, purchases.Counterparty)
	assert.Equal(t, "supplierId", purchases.Counterparty.Field)
	assert.Equal(t, "supplier", purchases.Counterparty.Key)

	assert.Equal(t, Sales, Describe(SaleItems).Parent)
	assert.Nil(t, Describe(Products).Counterparty)
	assert.Equal(t, FieldCreatedAt, Describe(Products).DateFieldOrDefault())
	assert.Equal(t, "date", Describe(Expenses).DateFieldOrDefault())

	assert.ElementsMatch(t, []Type{Sales, Purchases, BulkPurchases, SaleReturns}, Composite())
}

func TestDownloadOrder(t *testing.T) {
	order := DownloadOrder()
	pos := make(map[Type]int, len(order))
	for i, typ := range order {
		pos[typ] = i
		assert.False(t, Describe(typ).AlwaysOnline, typ)
	}

	// Контрагенты и товары скачиваются раньше документов, которые на них ссылаются.
	assert.Less(t, pos[Contacts], pos[Sales])
	assert.Less(t, pos[Products], pos[SaleItems])
	assert.Less(t, pos[Sales], pos[SaleItems])
	assert.Less(t, pos[BulkPurchases], pos[BulkPurchaseItems])
	assert.Equal(t, Settings, order[0])
	assert.Equal(t, LoanTransactions, order[len(order)-1])

	for _, typ := range UploadOrder() {
		assert.Empty(t, Describe(typ).Parent, "item types are uploaded nested: %s", typ)
	}
}

func TestRecord_Accessors(t *testing.T) {
	r := Record{
		FieldID:         "p1",
		FieldOwnerID:    "owner",
		FieldSyncStatus: string(StatusPending),
		"barcode":       float64(1000042),
		"quantity":      "3.50",
		"date":          "2024-03-05",
	}

	assert.Equal(t, "p1", r.ID())
	assert.Equal(t, "owner", r.OwnerID())
	assert.True(t, r.IsPending())
	assert.Equal(t, "1000042", r.String("barcode"))

	q, ok := r.Decimal("quantity")
	require.True(t, ok)
	assert.True(t, q.Equal(decimal.RequireFromString("3.5")))

	_, ok = r.Decimal("missing")
	assert.False(t, ok)

	d, ok := r.Time("date")
	require.True(t, ok)
	assert.Equal(t, 5, d.Day())
}

func TestRecord_CloneAndMerge(t *testing.T) {
	orig := Record{
		FieldID:    "s1",
		"total":    10,
		FieldItems: []any{map[string]any{"productId": "p1"}},
	}

	merged := orig.Merge(Record{"total": 12, "note": "x"})
	assert.Equal(t, 12, merged["total"])
	assert.Equal(t, "x", merged["note"])
	assert.Equal(t, 10, orig["total"])

	items, ok := merged.Items()
	require.True(t, ok)
	require.Len(t, items, 1)
	items[0]["product"] = Record{"id": "p1"}

	origItems, _ := orig.Items()
	_, attached := origItems[0]["product"]
	assert.False(t, attached)
}

func TestRecord_Label(t *testing.T) {
	sale := Record{FieldID: "s1", "invoiceNumber": "INV-7"}
	assert.Equal(t, "INV-7", sale.Label(Describe(Sales)))

	bare := Record{FieldID: "s2"}
	assert.Equal(t, "s2", bare.Label(Describe(Sales)))

	product := Record{FieldID: "p1", "name": "Cola"}
	assert.Equal(t, "Cola", product.Label(Describe(Products)))
}

func TestUnknownProduct(t *testing.T) {
	p := UnknownProduct("p9")
	assert.Equal(t, "p9", p.ID())
	assert.Equal(t, UnknownProductName, p.String(FieldName))
}
