package api

import (
	"net/http"

	"github.com/gaborage/fieldsadmin/customfields"
	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/server"
)

type fieldsHandler struct {
	fields Fields
}

// FieldsResponse lists field definitions and where they came from
type FieldsResponse struct {
	Fields []FieldView         `json:"fields"`
	Source customfields.Source `json:"source"`
	Count  int                 `json:"count"`
}

// FieldView is a Field with its type label resolved
type FieldView struct {
	customfields.Field
	TypeName string `json:"typeName"`
}

func (h *fieldsHandler) list(_ empty, ctx server.HandlerContext) (FieldsResponse, server.IAPIError) {
	sess := CurrentSession(ctx.Echo)
	if sess.Token == "" {
		return FieldsResponse{}, server.NewForbiddenError("Log in with an API token to list custom fields")
	}
	fields, source, err := h.fields.List(ctx.Context(), sess.Token)
	if err != nil {
		if httpclient.IsStatus(err, http.StatusUnauthorized) || httpclient.IsStatus(err, http.StatusForbidden) {
			return FieldsResponse{}, server.NewUnauthorizedError("The custom fields API rejected the access token")
		}
		return FieldsResponse{}, server.NewBadGatewayError("Could not load custom fields").
			WithDetails("error", err.Error())
	}

	views := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, FieldView{Field: f, TypeName: f.TypeName()})
	}
	return FieldsResponse{Fields: views, Source: source, Count: len(views)}, nil
}
