package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/report"
	"github.com/bodegacl/bodega-core/internal/repository"
	"github.com/bodegacl/bodega-core/internal/services"
)

// Handlers exposes the rule engines and reports over HTTP. Engine
// failures surface as plain string errors; callers display them, they
// do not pattern-match.
type Handlers struct {
	allocator        *engine.Allocator
	clock            engine.Clock
	lots             *repository.LotRepository
	reconciliation   *services.ReconciliationService
	reports          *services.ReportService
	defaultTolerance float64
	expiryWindow     int
	logger           *zap.Logger
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(
	allocator *engine.Allocator,
	clock engine.Clock,
	lots *repository.LotRepository,
	reconciliation *services.ReconciliationService,
	reports *services.ReportService,
	defaultTolerance float64,
	expiryWindow int,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		allocator:        allocator,
		clock:            clock,
		lots:             lots,
		reconciliation:   reconciliation,
		reports:          reports,
		defaultTolerance: defaultTolerance,
		expiryWindow:     expiryWindow,
		logger:           logger,
	}
}

// Allocate runs a FIFO allocation over the caller-supplied lot set.
func (h *Handlers) Allocate(c *gin.Context) {
	var req engine.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.allocator.Allocate(req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StockAllocationRequest asks for an allocation with candidate lots
// loaded from stored stock instead of supplied inline.
type StockAllocationRequest struct {
	CompanyID    string  `json:"companyId" binding:"required"`
	ItemID       string  `json:"itemId" binding:"required"`
	LocationID   string  `json:"locationId" binding:"required"`
	RequestedQty float64 `json:"requestedQty"`
	AllowExpired bool    `json:"allowExpired"`
	Reason       string  `json:"reason"`
}

// AllocateFromStock loads the candidate lots for the item and location
// from the database and runs the same allocation.
func (h *Handlers) AllocateFromStock(c *gin.Context) {
	var req StockAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	lots, err := h.lots.ListAvailable(req.CompanyID, req.ItemID, req.LocationID)
	if err != nil {
		h.logger.Error("Failed to load candidate lots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load candidate lots"})
		return
	}

	result, err := h.allocator.Allocate(engine.AllocationRequest{
		CompanyID:    req.CompanyID,
		ItemID:       req.ItemID,
		LocationID:   req.LocationID,
		RequestedQty: req.RequestedQty,
		Lots:         lots,
		AllowExpired: req.AllowExpired,
		Reason:       req.Reason,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidateMovement checks a proposed movement against the business
// rules.
func (h *Handlers) ValidateMovement(c *gin.Context) {
	var input engine.MovementValidationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := engine.ValidateMovement(input)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReconcileRequest carries inline reconciliation lines with an optional
// tolerance override.
type ReconcileRequest struct {
	Lines     []engine.ReconcileLine `json:"lines"`
	Tolerance *float64               `json:"tolerance"`
}

// Reconcile checks caller-supplied ledger/count pairs.
func (h *Handlers) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	tolerance := h.defaultTolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}

	result, err := engine.Reconcile(req.Lines, tolerance)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReconcileStored reconciles the rebuilt ledger against the stored
// physical counts of a company.
func (h *Handlers) ReconcileStored(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return
	}

	result, err := h.reconciliation.Run(companyID)
	if err != nil {
		h.logger.Error("Stored reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Summary serves the operator dashboard snapshot.
func (h *Handlers) Summary(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return
	}

	summary, err := h.reports.Summary(companyID, h.clock.Today(), h.expiryWindow)
	if err != nil {
		h.logger.Error("Failed to build summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// StockReport serves the stock-by-location workbook.
func (h *Handlers) StockReport(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return
	}

	workbook, err := h.reports.StockWorkbook(companyID)
	if err != nil {
		h.logger.Error("Failed to build stock report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build stock report"})
		return
	}
	defer workbook.Close()

	h.serveWorkbook(c, workbook, fmt.Sprintf("stock_por_ubicacion_%s.xlsx", h.stamp()))
}

// ExpiryReport serves the expiring-lot workbook for a 30/60/90 day
// window.
func (h *Handlers) ExpiryReport(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return
	}

	days := h.expiryWindow
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a number"})
			return
		}
		days = parsed
	}

	workbook, err := h.reports.ExpiryWorkbook(companyID, h.clock.Today(), days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer workbook.Close()

	h.serveWorkbook(c, workbook, fmt.Sprintf("vencimientos_%dd_%s.xlsx", days, h.stamp()))
}

// ReconcileReport serves the mismatch workbook for a stored
// reconciliation run.
func (h *Handlers) ReconcileReport(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return
	}

	result, err := h.reconciliation.Run(companyID)
	if err != nil {
		h.logger.Error("Stored reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed"})
		return
	}

	workbook, err := report.BuildReconcileWorkbook(result)
	if err != nil {
		h.logger.Error("Failed to build reconciliation report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build reconciliation report"})
		return
	}
	defer workbook.Close()

	h.serveWorkbook(c, workbook, fmt.Sprintf("descuadres_%s.xlsx", h.stamp()))
}

// KardexReport streams the movement history as CSV.
func (h *Handlers) KardexReport(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return
	}

	var buf bytes.Buffer
	if err := h.reports.WriteKardexCSV(&buf, companyID); err != nil {
		h.logger.Error("Failed to export kardex", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export kardex"})
		return
	}

	filename := fmt.Sprintf("kardex_%s.csv", h.stamp())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Health reports service liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "bodega-core",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) serveWorkbook(c *gin.Context, workbook *excelize.File, filename string) {
	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		h.logger.Error("Failed to render workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render workbook"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handlers) stamp() string {
	return time.Now().Format("20060102_1504")
}
