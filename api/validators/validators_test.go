package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

type customerPayload struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

type submitPayload struct {
	SessionID string          `json:"sessionId" validate:"required,uuid"`
	Customer  customerPayload `json:"customerInfo"`
	Language  string          `json:"language" validate:"omitempty,oneof=ru uz en"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sessionId":"nope","customerInfo":{"name":"A"},"language":"fr"}`))
	var dest submitPayload
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["customerInfo.phone"])
	assert.Equal(t, "must be a valid uuid", details["sessionId"])
	assert.Contains(t, details["language"], "must be one of")
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndEmpty(t *testing.T) {
	var dest submitPayload
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"extra":1}`)), &dest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &dest)
	require.Error(t, err)
	assert.Equal(t, "request body required", pkgerrors.As(err).Message())
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	body := `{"sessionId":"0f8fad5b-d9cb-469f-a165-70867728950e","customerInfo":{"name":"A","phone":"1"},"language":"uz"}`
	var dest submitPayload
	require.NoError(t, DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &dest))
	assert.Equal(t, "uz", dest.Language)
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&unread=yes&flag=true", nil)

	_, err := ParseQueryInt(req, "limit", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	v, err := ParseQueryInt(req, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = ParseQueryBool(req, "unread", false)
	assert.Error(t, err)

	flag, err := ParseQueryBool(req, "flag", false)
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestParseUUIDParam(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("orderId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	id, err := ParseUUIDParam(withParam("0f8fad5b-d9cb-469f-a165-70867728950e"), "orderId")
	require.NoError(t, err)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", id.String())

	_, err = ParseUUIDParam(withParam("42"), "orderId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
