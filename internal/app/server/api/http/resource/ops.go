package resource

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "resources-list",
		Method:      http.MethodGet,
		Path:        "/api/{resource}",
		Summary:     "Список записей",
		Description: "Страница записей владельца. Параметры запроса, кроме page, limit, search и date, фильтруют по точному совпадению полей.",
		Tags:        []string{"resources"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "resources-create",
		Method:        http.MethodPost,
		Path:          "/api/{resource}",
		Summary:       "Создать запись",
		Description:   "Создает запись с серверным id. Позиции документа из items сохраняются и в коллекцию позиций.",
		Tags:          []string{"resources"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "resources-find",
		Method:      http.MethodGet,
		Path:        "/api/{resource}/{id}",
		Summary:     "Получить запись",
		Tags:        []string{"resources"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "resources-update",
		Method:      http.MethodPut,
		Path:        "/api/{resource}/{id}",
		Summary:     "Обновить запись",
		Description: "Частичное изменение: переданные поля накладываются на запись.",
		Tags:        []string{"resources"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID:   "resources-delete",
		Method:        http.MethodDelete,
		Path:          "/api/{resource}/{id}",
		Summary:       "Удалить запись",
		Tags:          []string{"resources"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   h.middleware,
	}
}
