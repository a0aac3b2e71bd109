package handler

import (
	"net/http"

	"cantina/internal/dto"
	"cantina/internal/middleware"
	"cantina/internal/service"

	"github.com/gin-gonic/gin"
)

type TransactionsHandler struct{ ledger service.LedgerService }

func NewTransactionsHandler(ledger service.LedgerService) *TransactionsHandler {
	return &TransactionsHandler{ledger: ledger}
}

// List godoc
// @Summary      Listar transacoes
// @Tags         ledger
// @Produce      json
// @Param        student_id query string false "Filtrar por aluno"
// @Param        type       query string false "DEPOSIT ou PURCHASE"
// @Param        from       query string false "Data inicial (RFC 3339)"
// @Param        to         query string false "Data final exclusiva (RFC 3339)"
// @Success      200 {array} dto.TransactionResponse
// @Security     BearerAuth
// @Router       /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	var filter dto.TransactionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.ledger.ListTransactions(c.Request.Context(), middleware.GetScope(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionsHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.ledger.GetTransaction(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionsHandler) UpdateDescription(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.UpdateTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.UpdateTransactionDescription(c.Request.Context(), middleware.GetScope(c), id, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reverse godoc
// @Summary      Estornar transacao
// @Description  Desfaz o efeito no saldo e no estoque e remove o registro.
// @Tags         ledger
// @Param        id path string true "ID da transacao"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Security     BearerAuth
// @Router       /v1/transactions/{id} [delete]
func (h *TransactionsHandler) Reverse(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.ledger.ReverseTransaction(c.Request.Context(), middleware.GetScope(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
