package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	appreport "github.com/mystock/warehouse/internal/application/report"
	"github.com/mystock/warehouse/internal/domain/report"
	"github.com/mystock/warehouse/internal/interfaces/http/dto"
)

// ConsistencyChecker verifies stock against the ledger
type ConsistencyChecker interface {
	ConsistencyReport() report.ConsistencyReport
}

// ReportHandler serves the read-only projections
type ReportHandler struct {
	BaseHandler
	projections   appreport.Reader
	exporter      *appreport.ExportService
	checker       ConsistencyChecker
	recentDefault int
}

// NewReportHandler creates a new ReportHandler. recentDefault is the size of
// the activity feed when no limit is given.
func NewReportHandler(projections appreport.Reader, exporter *appreport.ExportService, checker ConsistencyChecker, recentDefault int) *ReportHandler {
	if recentDefault <= 0 {
		recentDefault = appreport.DefaultRecentActivity
	}
	return &ReportHandler{
		projections:   projections,
		exporter:      exporter,
		checker:       checker,
		recentDefault: recentDefault,
	}
}

// RegisterRoutes registers the report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	reports.GET("/summary", h.Summary)
	reports.GET("/low-stock", h.LowStock)
	reports.GET("/recent", h.Recent)
	reports.GET("/export", h.Download)
	reports.POST("/export", h.Export)
	reports.GET("/consistency", h.Consistency)
}

func (h *ReportHandler) threshold(c *gin.Context) (int64, bool) {
	var q dto.ThresholdQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return 0, false
	}
	if q.Threshold == nil {
		return h.projections.LowStockThreshold(), true
	}
	return *q.Threshold, true
}

// Summary returns totals, stock alerts and the per-category breakdown
func (h *ReportHandler) Summary(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		return
	}
	h.Success(c, dto.SummaryResponse{
		InventorySummary: h.projections.Summary(threshold),
		Categories:       h.projections.ValueByCategory(),
	})
}

// LowStock lists products strictly below the threshold
func (h *ReportHandler) LowStock(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		return
	}
	products := h.projections.LowStock(threshold)
	h.List(c, dto.NewProductListResponse(products), int64(len(products)), 0)
}

// Recent returns the latest ledger entries
func (h *ReportHandler) Recent(c *gin.Context) {
	var q dto.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = h.recentDefault
	}
	txs := h.projections.RecentActivity(limit)
	h.List(c, dto.NewTransactionListResponse(txs), int64(len(txs)), limit)
}

// Download streams the stock report as a CSV attachment
func (h *ReportHandler) Download(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.exporter.Render(&buf); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+h.exporter.FileName()+`"`)
	c.Data(http.StatusOK, appreport.CSVContentType, buf.Bytes())
}

// Export stores the stock report in the configured report storage
func (h *ReportHandler) Export(c *gin.Context) {
	result, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Consistency checks every product against its baseline and ledger entries
func (h *ReportHandler) Consistency(c *gin.Context) {
	h.Success(c, h.checker.ConsistencyReport())
}
