package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scriba/internal/report"
)

func (s *Server) GetQuota(c *gin.Context) {
	acct := currentAccount(c)

	token, err := s.quotaSvc.Balance(c.Request.Context(), acct.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quota_minutes":     token.QuotaMinutes,
		"used_minutes":      token.UsedMinutes,
		"remaining_minutes": token.Remaining(),
		"expiry_date":       token.ExpiryDate,
		"status":            token.Status,
	})
}

func (s *Server) GetQuotaHistory(c *gin.Context) {
	acct := currentAccount(c)

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be between 1 and 1000"))
			return
		}
		limit = parsed
	}

	records, err := s.quotaSvc.History(c.Request.Context(), acct.ID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ExportUsage streams the account's usage history for a period as an xlsx
// workbook.
func (s *Server) ExportUsage(c *gin.Context) {
	acct := currentAccount(c)

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_date", "from must be YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_date", "to must be YYYY-MM-DD"))
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	records, err := s.quotaSvc.UsageInPeriod(c.Request.Context(), acct.ID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Balance is optional here; a user without a token still has history.
	token, err := s.quotaSvc.Balance(c.Request.Context(), acct.ID)
	if err != nil {
		token = nil
	}

	workbook, err := report.UsageWorkbook(token, records)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("usage-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook.Bytes())
}

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.subscriptionSvc.ListPlans(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
