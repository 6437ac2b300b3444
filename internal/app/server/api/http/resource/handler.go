package resource

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"storekeeper/internal/app/server/api/http/middleware/auth"
	"storekeeper/internal/domain/entity"
	domain "storekeeper/internal/domain/resource"
)

type Handler struct {
	service    domain.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service domain.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "resource_handler"),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	t, err := input.Resource.Type()
	if err != nil {
		return nil, h.toHTTP(err)
	}

	page, err := h.service.List(ctx, ownerID, t, domain.ListParams{
		Page:    input.Page,
		Limit:   input.Limit,
		Search:  input.Search,
		Date:    input.Date,
		Filters: input.filters,
	})
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &listOutput{Body: page}, nil
}

func (h *Handler) find(ctx context.Context, input *itemInput) (*recordOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	t, err := input.Resource.Type()
	if err != nil {
		return nil, h.toHTTP(err)
	}

	rec, err := h.service.Find(ctx, ownerID, t, input.ID)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &recordOutput{Body: rec}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*recordOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	t, err := input.Resource.Type()
	if err != nil {
		return nil, h.toHTTP(err)
	}

	rec, err := h.service.Create(ctx, ownerID, t, input.Body, input.IdempotencyKey)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &recordOutput{Body: rec}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*recordOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	t, err := input.Resource.Type()
	if err != nil {
		return nil, h.toHTTP(err)
	}

	rec, err := h.service.Update(ctx, ownerID, t, input.ID, input.Body)
	if err != nil {
		return nil, h.toHTTP(err)
	}
	return &recordOutput{Body: rec}, nil
}

func (h *Handler) delete(ctx context.Context, input *itemInput) (*struct{}, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	t, err := input.Resource.Type()
	if err != nil {
		return nil, h.toHTTP(err)
	}

	if err := h.service.Delete(ctx, ownerID, t, input.ID); err != nil {
		return nil, h.toHTTP(err)
	}
	return nil, nil
}

// toHTTP переводит ошибки домена в ответы API. Неизвестные ошибки не раскрываются клиенту.
func (h *Handler) toHTTP(err error) error {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return huma.Error404NotFound("record not found")
	case errors.Is(err, entity.ErrUnknownType):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, entity.ErrInvalidData):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrNoOwner):
		return huma.Error401Unauthorized("Unauthorized")
	case errors.Is(err, context.Canceled):
		return huma.Error503ServiceUnavailable("request cancelled")
	}
	h.log.Error("request failed", "error", err)
	return huma.Error500InternalServerError("internal error")
}
