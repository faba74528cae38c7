package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	"github.com/smallbiznis/rentbill/pkg/db/pagination"
)

type generateInvoicesRequest struct {
	Period string `json:"period" binding:"required,period"`
}

type payInvoiceRequest struct {
	Note string `json:"note"`
}

type voidInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) GenerateInvoices(c *gin.Context) {
	buildingID, ok := pathID(c)
	if !ok {
		return
	}

	var req generateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("period", "invalid_period", "period must be YYYY-MM"))
		return
	}

	items, err := s.invoiceSvc.GenerateInvoices(c.Request.Context(), invoicedomain.GenerateRequest{
		BuildingID: buildingID,
		Period:     req.Period,
		Actor:      actorFrom(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": items})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.ListInvoices(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) IssueInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.IssueInvoice(c.Request.Context(), invoicedomain.TransitionRequest{
		InvoiceID: id,
		Actor:     actorFrom(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) PayInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req payInvoiceRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.PayInvoice(c.Request.Context(), invoicedomain.TransitionRequest{
		InvoiceID: id,
		Actor:     actorFrom(c),
		Note:      req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) VoidInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req voidInvoiceRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.VoidInvoice(c.Request.Context(), invoicedomain.TransitionRequest{
		InvoiceID: id,
		Actor:     actorFrom(c),
		Note:      req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) SendInvoiceEmail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.invoiceSvc.SendInvoiceEmail(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

func (s *Server) ListPaymentLogs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	if _, err := s.invoiceSvc.GetInvoice(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentLogSvc.List(ctx, paymentlogdomain.ListRequest{
		Pagination: page,
		InvoiceID:  id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.PaymentLogs, "page_info": resp.PageInfo})
}

func (s *Server) RunOverdueSweep(c *gin.Context) {
	result, err := s.invoiceSvc.MarkOverdueInvoices(c.Request.Context(), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if parsed, err := snowflake.ParseString(id); err != nil || parsed <= 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, out any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil {
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}
