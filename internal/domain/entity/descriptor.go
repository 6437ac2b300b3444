package entity

// Relation описывает ссылку записи на контрагента по внешнему ключу.
type Relation struct {
	Field string // внешний ключ в записи, например contactId
	Key   string // куда прикрепляется найденный контрагент
	Type  Type
}

// Children описывает строки документа (позиции продажи, закупки и т.д.).
type Children struct {
	Type        Type
	ParentField string // внешний ключ позиции на родителя, например saleId
	Key         string // поле родителя со встроенными позициями
}

// Descriptor - схема вида сущности: возможности, индексы и правила связей.
type Descriptor struct {
	Type         Type
	AlwaysOnline bool
	Syncable     bool
	Indexes      []string
	DateField    string
	Counterparty *Relation
	Items        *Children
	Parent       Type
	Label        []string
}

// SearchFields - поля записи, в которых ищется подстрока Params.Search.
// Клиент и сервер ищут по одному набору, плюс по имени контрагента.
var SearchFields = []string{FieldName, "description", "sku", "invoiceNumber", "documentNumber", FieldID}

var defaultLabel = []string{"name", "invoiceNumber", "documentNumber", "title", FieldID}

// Describe возвращает дескриптор типа.
func Describe(t Type) Descriptor {
	switch t {
	case Products:
		return Descriptor{
			Type:     t,
			Syncable: true,
			Indexes:  []string{"name", "sku", "barcode", "categoryId"},
			Label:    []string{"name", "sku", FieldID},
		}
	case Contacts:
		return Descriptor{
			Type:     t,
			Syncable: true,
			Indexes:  []string{"name", "phone", "type"},
			Label:    []string{"name", "phone", FieldID},
		}
	case Sales:
		return Descriptor{
			Type:         t,
			Syncable:     true,
			Indexes:      []string{"contactId", "date", "invoiceNumber"},
			DateField:    "date",
			Counterparty: &Relation{Field: "contactId", Key: "contact", Type: Contacts},
			Items:        &Children{Type: SaleItems, ParentField: "saleId", Key: FieldItems},
			Label:        []string{"invoiceNumber", FieldID},
		}
	case SaleItems:
		return Descriptor{
			Type:    t,
			Indexes: []string{"saleId", "productId"},
			Parent:  Sales,
			Label:   defaultLabel,
		}
	case Purchases:
		return Descriptor{
			Type:         t,
			Syncable:     true,
			Indexes:      []string{"supplierId", "date", "invoiceNumber"},
			DateField:    "date",
			Counterparty: &Relation{Field: "supplierId", Key: "supplier", Type: Contacts},
			Items:        &Children{Type: PurchaseItems, ParentField: "purchaseId", Key: FieldItems},
			Label:        []string{"invoiceNumber", FieldID},
		}
	case PurchaseItems:
		return Descriptor{
			Type:    t,
			Indexes: []string{"purchaseId", "productId"},
			Parent:  Purchases,
			Label:   defaultLabel,
		}
	case BulkPurchases:
		return Descriptor{
			Type:         t,
			Syncable:     true,
			Indexes:      []string{"supplierId", "date"},
			DateField:    "date",
			Counterparty: &Relation{Field: "supplierId", Key: "supplier", Type: Contacts},
			Items:        &Children{Type: BulkPurchaseItems, ParentField: "bulkPurchaseId", Key: FieldItems},
			Label:        []string{"invoiceNumber", "description", FieldID},
		}
	case BulkPurchaseItems:
		return Descriptor{
			Type:    t,
			Indexes: []string{"bulkPurchaseId", "productId"},
			Parent:  BulkPurchases,
			Label:   defaultLabel,
		}
	case Branches, Employees:
		return Descriptor{
			Type:         t,
			AlwaysOnline: true,
			Indexes:      []string{"name"},
			Label:        defaultLabel,
		}
	case Expenses:
		return Descriptor{
			Type:         t,
			Syncable:     true,
			Indexes:      []string{"contactId", "date", "category"},
			DateField:    "date",
			Counterparty: &Relation{Field: "contactId", Key: "contact", Type: Contacts},
			Label:        []string{"description", "category", FieldID},
		}
	case SaleReturns:
		return Descriptor{
			Type:         t,
			Syncable:     true,
			Indexes:      []string{"saleId", "contactId", "date"},
			DateField:    "date",
			Counterparty: &Relation{Field: "contactId", Key: "contact", Type: Contacts},
			Items:        &Children{Type: SaleReturnItems, ParentField: "saleReturnId", Key: FieldItems},
			Label:        []string{"documentNumber", FieldID},
		}
	case SaleReturnItems:
		return Descriptor{
			Type:    t,
			Indexes: []string{"saleReturnId", "productId"},
			Parent:  SaleReturns,
			Label:   defaultLabel,
		}
	case LoanTransactions:
		return Descriptor{
			Type:         t,
			Syncable:     true,
			Indexes:      []string{"contactId", "date"},
			DateField:    "date",
			Counterparty: &Relation{Field: "contactId", Key: "contact", Type: Contacts},
			Label:        []string{"description", FieldID},
		}
	case ShopSettings, Settings:
		return Descriptor{
			Type:     t,
			Syncable: true,
			Indexes:  []string{"key"},
			Label:    []string{"key", "name", FieldID},
		}
	case Categories:
		return Descriptor{
			Type:     t,
			Syncable: true,
			Indexes:  []string{"name"},
			Label:    []string{"name", FieldID},
		}
	}
	return Descriptor{Type: t, Label: defaultLabel}
}

// DateFieldOrDefault возвращает поле для фильтра по дате.
func (d Descriptor) DateFieldOrDefault() string {
	if d.DateField != "" {
		return d.DateField
	}
	return FieldCreatedAt
}

// HasIndex сообщает, объявлен ли вторичный индекс по полю.
func (d Descriptor) HasIndex(field string) bool {
	if field == FieldOwnerID {
		return true
	}
	for _, idx := range d.Indexes {
		if idx == field {
			return true
		}
	}
	return false
}

// IsLocal сообщает, может ли тип храниться в локальном хранилище.
func (d Descriptor) IsLocal() bool {
	return !d.AlwaysOnline
}

// DownloadOrder - порядок скачивания: контрагенты раньше ссылающихся на них документов.
func DownloadOrder() []Type {
	return []Type{
		Settings, ShopSettings, Categories, Contacts, Products, Expenses,
		Sales, SaleItems, Purchases, PurchaseItems, BulkPurchases,
		BulkPurchaseItems, SaleReturns, SaleReturnItems, LoanTransactions,
	}
}

// UploadOrder - типы, которые отправляются на сервер напрямую.
// Позиции документов уходят вложенными в родителя.
func UploadOrder() []Type {
	var out []Type
	for _, t := range DownloadOrder() {
		if Describe(t).Syncable {
			out = append(out, t)
		}
	}
	return out
}

// Composite возвращает типы документов со строками.
func Composite() []Type {
	var out []Type
	for _, t := range All() {
		if Describe(t).Items != nil {
			out = append(out, t)
		}
	}
	return out
}
