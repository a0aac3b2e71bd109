package handler

import (
	"net/http"

	"cantina/internal/dto"
	"cantina/internal/middleware"
	"cantina/internal/service"

	"github.com/gin-gonic/gin"
)

type RestocksHandler struct{ ledger service.LedgerService }

func NewRestocksHandler(ledger service.LedgerService) *RestocksHandler {
	return &RestocksHandler{ledger: ledger}
}

// Bulk godoc
// @Summary      Reposicao em lote
// @Description  Cada item e aplicado separadamente; o resultado traz o desfecho por item.
// @Description  Com dados de nota, registra uma nota de entrada com os itens aplicados.
// @Tags         restocks
// @Accept       json
// @Produce      json
// @Param        body body dto.BulkRestockRequest true "Itens e nota"
// @Success      200 {object} dto.BulkRestockResponse
// @Failure      422 {object} apierror.ValidationError
// @Security     BearerAuth
// @Router       /v1/restocks [post]
func (h *RestocksHandler) Bulk(c *gin.Context) {
	var req dto.BulkRestockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.BulkRestock(c.Request.Context(), middleware.GetScope(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestocksHandler) Invoices(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.ledger.ListInvoices(c.Request.Context(), middleware.GetScope(c), filter.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
