package httpclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fieldsadmin/logger"
)

type testAccount struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestGetJSON(t *testing.T) {
	rec := &recorder{body: `{"id":1330256,"name":"Estudio"}`}
	c := NewBuilder(logger.Nop()).WithTransport(rec).Build()

	account, resp, err := GetJSON[testAccount](context.Background(), c, testItemsURL, nil)
	require.NoError(t, err)
	assert.Equal(t, testAccount{ID: 1330256, Name: "Estudio"}, account)
	assert.Equal(t, 200, resp.Status)
}

func TestGetJSONTypeMismatch(t *testing.T) {
	rec := &recorder{body: `{"id":"not-a-number"}`}
	c := NewBuilder(logger.Nop()).WithTransport(rec).Build()

	_, resp, err := GetJSON[testAccount](context.Background(), c, testItemsURL, nil)
	assert.True(t, IsKind(err, KindDecode))
	assert.Nil(t, resp)

	he, ok := AsError(err)
	require.True(t, ok)
	require.NotNil(t, he.Response)
	assert.Equal(t, 200, he.Response.Status)
}

func TestGetJSONLenientTypeMismatch(t *testing.T) {
	rec := &recorder{body: `{"id":"not-a-number"}`}
	c := NewBuilder(logger.Nop()).WithTransport(rec).Build()

	account, resp, err := GetJSON[testAccount](context.Background(), c, testItemsURL, &RequestOptions{LenientJSON: true})
	require.NoError(t, err)
	assert.Zero(t, account)
	require.NotNil(t, resp)
	assert.Equal(t, `{"id":"not-a-number"}`, string(resp.Body))
}

func TestGetJSONNoContent(t *testing.T) {
	rec := &recorder{status: 204}
	c := NewBuilder(logger.Nop()).WithTransport(rec).Build()

	account, resp, err := GetJSON[testAccount](context.Background(), c, testItemsURL, nil)
	require.NoError(t, err)
	assert.Zero(t, account)
	assert.Equal(t, 204, resp.Status)
}

func TestPostJSON(t *testing.T) {
	rec := &recorder{status: 201, body: `{"id":7,"name":"Acme"}`}
	c := NewBuilder(logger.Nop()).WithTransport(rec).Build()

	created, _, err := PostJSON[testAccount](context.Background(), c, testItemsURL, testAccount{Name: "Acme"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)

	req, body := rec.last()
	assert.Equal(t, "POST", req.Method)
	assert.JSONEq(t, `{"id":0,"name":"Acme"}`, body)
}

func TestGetJSONPropagatesHTTPError(t *testing.T) {
	rec := &recorder{status: 404, body: `{"message":"missing"}`}
	c := NewBuilder(logger.Nop()).WithTransport(rec).Build()

	_, resp, err := GetJSON[testAccount](context.Background(), c, testItemsURL, nil)
	assert.Nil(t, resp)
	assert.True(t, IsStatus(err, 404))
}
