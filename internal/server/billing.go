package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	"github.com/smallbiznis/scriba/internal/billing/statement"
)

func periodFromQuery(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "year is required"))
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "month is required"))
		return 0, 0, false
	}
	return year, month, true
}

// RunMonthlyBilling triggers the aggregator for one period. Re-runs are
// idempotent; already-billed users are reported as skipped.
func (s *Server) RunMonthlyBilling(c *gin.Context) {
	year, month, ok := periodFromQuery(c)
	if !ok {
		return
	}

	reportRun, err := s.billingSvc.GenerateMonthlyBilling(c.Request.Context(), year, month)
	if err != nil && reportRun == nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		// Partial failure: some subscriptions billed, some did not.
		status = http.StatusMultiStatus
	}
	c.JSON(status, reportRun)
}

func (s *Server) RunSubscriptionRenewal(c *gin.Context) {
	year, month, ok := periodFromQuery(c)
	if !ok {
		return
	}

	reportRun, err := s.billingSvc.RenewSubscriptions(c.Request.Context(), year, month)
	if err != nil && reportRun == nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	c.JSON(status, reportRun)
}

func (s *Server) GetBillingSummary(c *gin.Context) {
	year, month, ok := periodFromQuery(c)
	if !ok {
		return
	}

	summary, err := s.billingSvc.Summary(c.Request.Context(), year, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) ListBillings(c *gin.Context) {
	year, month, ok := periodFromQuery(c)
	if !ok {
		return
	}

	billings, err := s.billingSvc.ListBillings(c.Request.Context(), year, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"billings": billings})
}

func (s *Server) billingForCaller(c *gin.Context) *billingdomain.MonthlyBilling {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid billing id"))
		return nil
	}

	billing, err := s.billingSvc.GetBilling(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return nil
	}

	acct := currentAccount(c)
	if billing.UserID != acct.ID && !acct.IsAdmin {
		AbortWithError(c, ErrNotFound)
		return nil
	}
	return billing
}

func (s *Server) GetBilling(c *gin.Context) {
	billing := s.billingForCaller(c)
	if billing == nil {
		return
	}
	c.JSON(http.StatusOK, billing)
}

// GetBillingStatement renders one billing row as a PDF statement.
func (s *Server) GetBillingStatement(c *gin.Context) {
	billing := s.billingForCaller(c)
	if billing == nil {
		return
	}

	doc, err := statement.Render(billing)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="statement.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
