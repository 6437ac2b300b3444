package entity

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// Type - вид сущности, которым управляет слой доступа к данным.
type Type string

const (
	Products          Type = "products"
	Contacts          Type = "contacts"
	Sales             Type = "sales"
	SaleItems         Type = "saleItems"
	Purchases         Type = "purchases"
	PurchaseItems     Type = "purchaseItems"
	BulkPurchases     Type = "bulkPurchases"
	BulkPurchaseItems Type = "bulkPurchaseItems"
	Branches          Type = "branches"
	Employees         Type = "employees"
	Expenses          Type = "expenses"
	SaleReturns       Type = "saleReturns"
	SaleReturnItems   Type = "saleReturnItems"
	LoanTransactions  Type = "loanTransactions"
	ShopSettings      Type = "shopSettings"
	Categories        Type = "categories"
	Settings          Type = "settings"
)

// All возвращает все типы сущностей в порядке объявления.
func All() []Type {
	return []Type{
		Products, Contacts, Sales, SaleItems, Purchases, PurchaseItems,
		BulkPurchases, BulkPurchaseItems, Branches, Employees, Expenses,
		SaleReturns, SaleReturnItems, LoanTransactions, ShopSettings,
		Categories, Settings,
	}
}

// Validate проверяет, что тип входит в закрытое перечисление.
func (t Type) Validate() error {
	switch t {
	case Products, Contacts, Sales, SaleItems, Purchases, PurchaseItems,
		BulkPurchases, BulkPurchaseItems, Branches, Employees, Expenses,
		SaleReturns, SaleReturnItems, LoanTransactions, ShopSettings,
		Categories, Settings:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownType, t)
}

// String возвращает строковое представление типа.
func (t Type) String() string {
	return string(t)
}

// Parse принимает как имя типа ("saleItems"), так и имя ресурса ("sale-items").
func Parse(s string) (Type, error) {
	t := Type(s)
	if err := t.Validate(); err == nil {
		return t, nil
	}
	return Resource(s).Type()
}

// Resource - сегмент пути REST API для типа сущности.
type Resource string

func (Resource) Schema(_ huma.Registry) *huma.Schema {
	enum := make([]any, 0, len(All()))
	for _, t := range All() {
		enum = append(enum, string(t.Resource()))
	}
	return &huma.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Ресурс REST API (тип сущности)",
		Examples:    []any{string(Products.Resource())},
	}
}

// Type возвращает тип сущности по имени ресурса.
func (r Resource) Type() (Type, error) {
	for _, t := range All() {
		if t.Resource() == r {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownType, string(r))
}

// Resource сопоставляет тип сущности с эндпоинтом /api/{resource}.
func (t Type) Resource() Resource {
	switch t {
	case Products:
		return "products"
	case Contacts:
		return "contacts"
	case Sales:
		return "sales"
	case SaleItems:
		return "sale-items"
	case Purchases:
		return "purchases"
	case PurchaseItems:
		return "purchase-items"
	case BulkPurchases:
		return "bulk-purchases"
	case BulkPurchaseItems:
		return "bulk-purchase-items"
	case Branches:
		return "branches"
	case Employees:
		return "employees"
	case Expenses:
		return "expenses"
	case SaleReturns:
		return "sale-returns"
	case SaleReturnItems:
		return "sale-return-items"
	case LoanTransactions:
		return "loan-transactions"
	case ShopSettings:
		return "shop-settings"
	case Categories:
		return "categories"
	case Settings:
		return "settings"
	}
	return ""
}
