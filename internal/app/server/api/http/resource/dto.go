package resource

import (
	"github.com/danielgtaylor/huma/v2"

	"storekeeper/internal/domain/entity"
)

// reservedQuery - параметры списка, которые не считаются фильтрами по полям.
var reservedQuery = map[string]bool{
	"page":   true,
	"limit":  true,
	"search": true,
	"date":   true,
}

type listInput struct {
	Resource entity.Resource `path:"resource" doc:"Ресурс (тип сущности)"`
	Page     int             `query:"page" minimum:"0" example:"1" doc:"Номер страницы, с 1"`
	Limit    int             `query:"limit" minimum:"0" example:"20" doc:"Размер страницы"`
	Search   string          `query:"search" doc:"Подстрока без учёта регистра"`
	Date     string          `query:"date" pattern:"^[0-9]{4}-[0-9]{2}-[0-9]{2}$" example:"2024-03-05" doc:"Календарный день YYYY-MM-DD"`

	filters map[string]string
}

// Resolve собирает остальные параметры запроса как точные фильтры по полям записи.
func (i *listInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	for key, values := range u.Query() {
		if reservedQuery[key] || len(values) == 0 {
			continue
		}
		if i.filters == nil {
			i.filters = make(map[string]string)
		}
		i.filters[key] = values[0]
	}
	return nil
}

type listOutput struct {
	Body entity.Page
}

type itemInput struct {
	Resource entity.Resource `path:"resource" doc:"Ресурс (тип сущности)"`
	ID       string          `path:"id" example:"0190f1c2-7a3b-7c00-8000-000000000001" doc:"ID записи"`
}

type createInput struct {
	Resource       entity.Resource `path:"resource" doc:"Ресурс (тип сущности)"`
	IdempotencyKey string          `header:"Idempotency-Key" maxLength:"255" doc:"Повтор с тем же ключом вернёт уже созданную запись"`
	Body           entity.Record
}

type updateInput struct {
	Resource entity.Resource `path:"resource" doc:"Ресурс (тип сущности)"`
	ID       string          `path:"id" doc:"ID записи"`
	Body     entity.Record
}

type recordOutput struct {
	Body entity.Record
}
