package api

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/fieldsadmin/company"
	"github.com/gaborage/fieldsadmin/server"
)

type companyHandler struct {
	companies Companies
}

type companyID struct {
	ID string `param:"id" validate:"required"`
}

type updateCompanyRequest struct {
	ID string `param:"id" json:"-" validate:"required"`
	company.UpdateInput
}

func (h *companyHandler) list(_ empty, ctx server.HandlerContext) ([]company.Company, server.IAPIError) {
	list, err := h.companies.List(ctx.Context())
	if err != nil {
		return nil, companyError(err)
	}
	return list, nil
}

func (h *companyHandler) get(req companyID, ctx server.HandlerContext) (*company.Company, server.IAPIError) {
	c, err := h.companies.Get(ctx.Context(), req.ID)
	if err != nil {
		return nil, companyError(err)
	}
	return c, nil
}

func (h *companyHandler) create(req company.CreateInput, ctx server.HandlerContext) (server.Result[*company.Company], server.IAPIError) {
	c, err := h.companies.Create(ctx.Context(), req)
	if err != nil {
		return server.Result[*company.Company]{}, companyError(err)
	}
	return server.Created(c), nil
}

func (h *companyHandler) update(req updateCompanyRequest, ctx server.HandlerContext) (*company.Company, server.IAPIError) {
	c, err := h.companies.Update(ctx.Context(), req.ID, req.UpdateInput)
	if err != nil {
		return nil, companyError(err)
	}
	return c, nil
}

func (h *companyHandler) remove(req companyID, ctx server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	if err := h.companies.Delete(ctx.Context(), req.ID); err != nil {
		return server.NoContent(), companyError(err)
	}
	return server.NoContent(), nil
}

func companyError(err error) server.IAPIError {
	switch {
	case errors.Is(err, company.ErrNotFound):
		return server.NewNotFoundError("Company")
	case errors.Is(err, company.ErrDuplicate):
		return server.NewConflictError("A company with that name already exists")
	case errors.Is(err, company.ErrInvalid):
		apiErr := server.NewBadRequestError("Request validation failed")
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			_ = apiErr.WithDetails("validationErrors", server.NewValidationError(verrs).Errors)
		}
		return apiErr
	default:
		return server.NewInternalServerError("").WithDetails("error", err.Error())
	}
}
