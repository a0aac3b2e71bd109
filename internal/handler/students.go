package handler

import (
	"net/http"

	"cantina/internal/dto"
	"cantina/internal/middleware"
	"cantina/internal/service"

	"github.com/gin-gonic/gin"
)

type StudentsHandler struct {
	svc    service.StudentService
	ledger service.LedgerService
}

func NewStudentsHandler(svc service.StudentService, ledger service.LedgerService) *StudentsHandler {
	return &StudentsHandler{svc: svc, ledger: ledger}
}

// Create godoc
// @Summary      Cadastrar aluno
// @Description  Operadores de escola sempre cadastram na propria escola.
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateStudentRequest true "Aluno"
// @Success      201 {object} dto.StudentResponse
// @Failure      422 {object} apierror.ValidationError
// @Security     BearerAuth
// @Router       /v1/students [post]
func (h *StudentsHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetScope(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      Listar alunos da escola do operador
// @Tags         students
// @Produce      json
// @Param        name        query string false "Filtro por nome"
// @Param        active_only query bool   false "Somente ativos"
// @Success      200 {array} dto.StudentResponse
// @Security     BearerAuth
// @Router       /v1/students [get]
func (h *StudentsHandler) List(c *gin.Context) {
	var filter dto.StudentFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.GetScope(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetScope(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) SetActive(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetActive(c.Request.Context(), middleware.GetScope(c), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StudentsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetScope(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deposit godoc
// @Summary      Registrar deposito
// @Description  Credita o saldo pre-pago do aluno. CREDIT nao e aceito.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id   path string             true "ID do aluno"
// @Param        body body dto.DepositRequest true "Deposito"
// @Success      201 {object} dto.LedgerResponse
// @Failure      404 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Security     BearerAuth
// @Router       /v1/students/{id}/deposits [post]
func (h *StudentsHandler) Deposit(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.DepositRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Deposit(c.Request.Context(), middleware.GetScope(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Purchase godoc
// @Summary      Registrar compra
// @Description  Baixa o estoque dos itens e, se o metodo for CREDIT, debita o saldo.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id   path string              true "ID do aluno"
// @Param        body body dto.PurchaseRequest true "Compra"
// @Success      201 {object} dto.LedgerResponse
// @Failure      409 {object} apierror.APIError "Estoque ou saldo insuficiente"
// @Failure      503 {object} apierror.APIError
// @Security     BearerAuth
// @Router       /v1/students/{id}/purchases [post]
func (h *StudentsHandler) Purchase(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.PurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Purchase(c.Request.Context(), middleware.GetScope(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
