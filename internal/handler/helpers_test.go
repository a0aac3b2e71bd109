package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(h gin.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, "/x", h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/x", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRespondError_Mapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"validation", apperror.Validation("amount deve ser um valor positivo"), http.StatusUnprocessableEntity, "amount deve ser um valor positivo"},
		{"not found", apperror.NotFound("aluno", "x"), http.StatusNotFound, "aluno x: registro nao encontrado"},
		{"stock", apperror.InsufficientStock("sem estoque"), http.StatusConflict, "sem estoque"},
		{"denied", apperror.AccessDenied("aluno de outra escola"), http.StatusForbidden, ""},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "Erro interno do servidor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(func(c *gin.Context) { respondError(c, tc.err) }, http.MethodGet, "")
			assert.Equal(t, tc.status, w.Code)
			assert.Empty(t, w.Header().Get("Retry-After"))
			if tc.detail != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tc.detail, body["detail"])
			}
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestRespondError_ConcurrencyAdvertisesRetry(t *testing.T) {
	w := serve(func(c *gin.Context) { respondError(c, apperror.Concurrency(3, errors.New("deadlock"))) }, http.MethodGet, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, retryAfterSeconds, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "operacao abortada apos 3 tentativas")
	assert.NotContains(t, w.Body.String(), "deadlock")
}

func TestBindAndValidate(t *testing.T) {
	h := func(c *gin.Context) {
		var req dto.DepositRequest
		if !bindAndValidate(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	}

	w := serve(h, http.MethodPost, `{"amount": 10.5, "method": "PIX"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h, http.MethodPost, `{"amount": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "JSON invalido")

	w = serve(h, http.MethodPost, `{"amount": 0, "method": "PIX"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "required", body.Fields["Amount"])

	w = serve(h, http.MethodPost, `{"amount": 5, "method": "CREDIT"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestParamID_RejectsNonUUID(t *testing.T) {
	r := gin.New()
	r.GET("/students/:id", func(c *gin.Context) {
		if _, ok := paramID(c); !ok {
			return
		}
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth_WithoutRedis(t *testing.T) {
	db := testutil.NewDB(t)
	w := serve(Health(db, nil, nil), http.MethodGet, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "disabled", body["redis"])
	assert.NotContains(t, body, "dlq")
}
