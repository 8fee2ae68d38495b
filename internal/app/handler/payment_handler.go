package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/metrics"
	"asdm/internal/app/repository"
)

// CreatePayment records the disbursement of a grant request
// @Summary Create a payment
// @Tags Paiements
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/paiements [post]
func (h *Handler) CreatePayment(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionCreate, authz.ResourcePayment, nil); !ok {
		return
	}
	var request dto.CreatePaymentRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	ctx := c.Request.Context()
	req, err := h.Repository.GetGrantRequestHeader(ctx, request.GrantRequestID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	p := &ds.Payment{
		Amount:    request.Amount,
		Mode:      ds.PaymentMode(request.Mode),
		Reference: request.Reference,
	}
	if err := h.Workflow.NewPayment(p, req); err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.CreatePayment(ctx, p); err != nil {
		h.errorHandler(c, err)
		return
	}
	metrics.RecordTransition(authz.ResourcePayment, string(p.Status))
	c.JSON(http.StatusCreated, toPaymentResponse(p))
}

// ListPayments lists payments
// @Summary List payments
// @Tags Paiements
// @Produce json
// @Param demande_id query int false "Grant request ID"
// @Param statut query string false "en_attente, traite, echoue or annule"
// @Param mode_paiement query string false "virement, cheque or especes"
// @Param search query string false "Search in reference"
// @Param ordering query string false "date_paiement, date_creation or montant; prefix - for descending"
// @Success 200 {object} dto.ListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/paiements [get]
func (h *Handler) ListPayments(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionList, authz.ResourcePayment, nil); !ok {
		return
	}
	f := repository.PaymentFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	var err error
	if f.GrantRequestID, err = queryUint(c, "demande_id"); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Status, err = queryChoice(c, "statut", validPaymentStatus); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Mode, err = queryChoice(c, "mode_paiement", ds.PaymentMode.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}

	payments, err := h.Repository.ListPayments(c.Request.Context(), f)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	results := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		results[i] = toPaymentResponse(&payments[i])
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

func validPaymentStatus(s ds.PaymentStatus) bool {
	for _, v := range ds.PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// GetPayment returns one payment
// @Summary Get a payment
// @Tags Paiements
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/paiements/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	p, ok := h.loadPayment(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
}

// UpdatePayment edits amount, mode or reference
// @Summary Update a payment
// @Tags Paiements
// @Accept json
// @Produce json
// @Param id path int true "Payment ID"
// @Param request body dto.UpdatePaymentRequest true "Fields to change"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/paiements/{id} [put]
func (h *Handler) UpdatePayment(c *gin.Context) {
	p, ok := h.loadPayment(c, authz.ActionUpdate)
	if !ok {
		return
	}
	var request dto.UpdatePaymentRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	if request.Amount != nil {
		p.Amount = *request.Amount
	}
	if request.Mode != nil {
		p.Mode = ds.PaymentMode(*request.Mode)
	}
	if request.Reference != nil {
		p.Reference = strings.TrimSpace(*request.Reference)
	}
	h.savePayment(c, p)
}

// ProcessPayment marks a payment processed
// @Summary Process a payment
// @Description Sets statut to traite and date_paiement to now. Processing again refreshes the date.
// @Tags Paiements
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/paiements/{id}/traiter [post]
func (h *Handler) ProcessPayment(c *gin.Context) {
	p, ok := h.loadPayment(c, authz.ActionProcess)
	if !ok {
		return
	}
	h.Workflow.ProcessPayment(p)
	if h.savePayment(c, p) {
		metrics.RecordTransition(authz.ResourcePayment, string(p.Status))
	}
}

// CancelPayment marks a payment cancelled
// @Summary Cancel a payment
// @Tags Paiements
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/paiements/{id}/annuler [post]
func (h *Handler) CancelPayment(c *gin.Context) {
	p, ok := h.loadPayment(c, authz.ActionCancel)
	if !ok {
		return
	}
	h.Workflow.CancelPayment(p)
	if h.savePayment(c, p) {
		metrics.RecordTransition(authz.ResourcePayment, string(p.Status))
	}
}

// DeletePayment removes a payment
// @Summary Delete a payment
// @Tags Paiements
// @Param id path int true "Payment ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/paiements/{id} [delete]
func (h *Handler) DeletePayment(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionDelete, authz.ResourcePayment, nil); !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.DeletePayment(c.Request.Context(), id); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) savePayment(c *gin.Context, p *ds.Payment) bool {
	if err := h.Repository.SavePayment(c.Request.Context(), p); err != nil {
		h.errorHandler(c, err)
		return false
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
	return true
}

func (h *Handler) loadPayment(c *gin.Context, action authz.Action) (*ds.Payment, bool) {
	if _, ok := h.authorize(c, action, authz.ResourcePayment, nil); !ok {
		return nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	p, err := h.Repository.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	return p, true
}
