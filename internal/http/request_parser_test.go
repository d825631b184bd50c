package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader(`{"amount": 12.34, "category": " Comida\u0007 ", "flag": true}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	require.NoError(t, p.Parse())
	assert.True(t, p.IsJSON())
	assert.Equal(t, "12.34", p.Get("amount"))
	assert.Equal(t, "Comida", p.Get("category"))
	assert.Equal(t, "true", p.Get("flag"))
	assert.Equal(t, "", p.Get("missing"))
	assert.False(t, p.Has("missing"))

	amount, err := p.Amount("amount", "amount")
	require.NoError(t, err)
	assert.Equal(t, "12.34", amount.String())
}

func TestRequestBodyParser_FormData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader("amount=1%2C5&category=Renta&description="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	require.NoError(t, p.Parse())
	assert.False(t, p.IsJSON())
	assert.Equal(t, "1,5", p.Get("amount"))
	assert.True(t, p.Has("description"))
	assert.Equal(t, "", p.Get("description"))

	amount, err := p.Amount("amount", "amount")
	require.NoError(t, err)
	assert.Equal(t, "1.5", amount.String())
}

func TestRequestBodyParser_QueryFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/expenses/delete?id=1741000000000", nil)

	p := NewRequestBodyParser(req)
	require.NoError(t, p.Parse())
	assert.True(t, p.Has("id"))
	id, err := p.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(1741000000000), id)
}

func TestRequestBodyParser_Errors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/income", strings.NewReader(`{"income": `))
	p := NewRequestBodyParser(req)
	assert.Error(t, p.Parse())
	assert.Error(t, p.Parse(), "parse result is sticky")

	req = httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("amount=abc&index=x"))
	p = NewRequestBodyParser(req)
	require.NoError(t, p.Parse())

	_, err := p.Amount("amount", "amount")
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "amount", ve.Field)
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))

	_, err = p.Int64("index")
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		method  string
		allowed []string
		wantNil bool
	}{
		{http.MethodGet, []string{http.MethodGet}, true},
		{http.MethodPost, []string{http.MethodGet, http.MethodHead}, false},
		{http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, true},
	}
	for _, tt := range tests {
		resp := RequireMethod(httptest.NewRequest(tt.method, "/", nil), tt.allowed...)
		assert.Equal(t, tt.wantNil, resp == nil, tt.method)
	}

	resp := RequirePOST(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, resp)
	rr := httptest.NewRecorder()
	resp.Write(rr)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))

	resp = RequireDeleteOrPOST(httptest.NewRequest(http.MethodPut, "/", nil))
	require.NotNil(t, resp)
	rr = httptest.NewRecorder()
	resp.Write(rr)
	assert.Equal(t, "DELETE, POST", rr.Header().Get("Allow"))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\x00\tb\x1b "))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity},
		{core.ErrNothingToClose, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
	assert.Equal(t, "Dato inválido: amount", userMessage(tests[0].err))
	assert.Equal(t, "Error al guardar los datos", userMessage(tests[2].err))
}
