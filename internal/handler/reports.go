package handler

import (
	"net/http"

	"cantina/internal/middleware"
	"cantina/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Financial godoc
// @Summary      Relatorio financeiro
// @Description  Receita bruta, custo das mercadorias, custo operacional e lucro liquido,
// @Description  com ranking de margem unitaria e de produtos parados.
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.FinancialReportResponse
// @Security     BearerAuth
// @Router       /v1/reports/financial [get]
func (h *ReportsHandler) Financial(c *gin.Context) {
	resp, err := h.svc.Financial(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportsHandler) Stock(c *gin.Context) {
	resp, err := h.svc.Stock(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportsHandler) Dashboard(c *gin.Context) {
	resp, err := h.svc.Dashboard(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportsHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.LowStock(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
