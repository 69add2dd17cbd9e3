package services

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/kardex"
	"github.com/bodegacl/bodega-core/internal/models"
	"github.com/bodegacl/bodega-core/internal/report"
	"github.com/bodegacl/bodega-core/internal/repository"
)

// ReportService assembles stored warehouse data into exportable
// reports and the operator summary.
type ReportService struct {
	catalog    *repository.CatalogRepository
	lots       *repository.LotRepository
	stock      *repository.StockRepository
	movements  *repository.MovementRepository
	workOrders *repository.WorkOrderRepository
	logger     *zap.Logger
}

// NewReportService creates a report service.
func NewReportService(
	catalog *repository.CatalogRepository,
	lots *repository.LotRepository,
	stock *repository.StockRepository,
	movements *repository.MovementRepository,
	workOrders *repository.WorkOrderRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		catalog:    catalog,
		lots:       lots,
		stock:      stock,
		movements:  movements,
		workOrders: workOrders,
		logger:     logger,
	}
}

// StockWorkbook renders the stock-by-location workbook for a company.
func (s *ReportService) StockWorkbook(companyID string) (*excelize.File, error) {
	stock, err := s.stock.ListBalances(companyID)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.ListItems(companyID)
	if err != nil {
		return nil, err
	}
	locations, err := s.catalog.ListLocations(companyID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}

	return report.BuildStockWorkbook(stock, items, locations, lots)
}

// ExpiryWorkbook renders the expiring-lot workbook for a company over
// the given lookahead window.
func (s *ReportService) ExpiryWorkbook(companyID string, now time.Time, windowDays int) (*excelize.File, error) {
	switch windowDays {
	case 30, 60, 90:
	default:
		return nil, fmt.Errorf("expiry window must be 30, 60 or 90 days, got %d", windowDays)
	}

	stock, err := s.stock.ListBalances(companyID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.ListItems(companyID)
	if err != nil {
		return nil, err
	}

	return report.BuildExpiryWorkbook(stock, lots, items, now, windowDays)
}

// ItemStockSummary is one item's aggregate position across locations.
type ItemStockSummary struct {
	ItemID   string  `json:"itemId"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	TotalQty float64 `json:"totalQty"`
}

// WarehouseSummary is the operator dashboard snapshot.
type WarehouseSummary struct {
	TotalItems       int                `json:"totalItems"`
	TotalLocations   int                `json:"totalLocations"`
	PendingMovements int                `json:"pendingMovements"`
	OpenWorkOrders   int                `json:"openWorkOrders"`
	ExpiringLots     []models.Lot       `json:"expiringLots"`
	ItemStock        []ItemStockSummary `json:"itemStock"`
}

// Summary aggregates the company's current position: catalog sizes,
// pending approvals, open work orders, lots expiring within the window
// and per-item totals.
func (s *ReportService) Summary(companyID string, now time.Time, windowDays int) (*WarehouseSummary, error) {
	items, err := s.catalog.ListItems(companyID)
	if err != nil {
		return nil, err
	}
	locations, err := s.catalog.ListLocations(companyID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}
	stock, err := s.stock.ListBalances(companyID)
	if err != nil {
		return nil, err
	}
	movements, err := s.movements.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}
	workOrders, err := s.workOrders.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}

	pending := 0
	for _, movement := range movements {
		if movement.Status == engine.StatusPending {
			pending++
		}
	}

	itemStock := make([]ItemStockSummary, 0, len(items))
	for _, item := range items {
		itemStock = append(itemStock, ItemStockSummary{
			ItemID:   item.ID,
			SKU:      item.SKU,
			Name:     item.Name,
			TotalQty: kardex.ItemTotalStock(stock, item.ID),
		})
	}

	return &WarehouseSummary{
		TotalItems:       len(items),
		TotalLocations:   len(locations),
		PendingMovements: pending,
		OpenWorkOrders:   kardex.CountOpenWorkOrders(workOrders),
		ExpiringLots:     kardex.ListExpiringLots(lots, now, windowDays),
		ItemStock:        itemStock,
	}, nil
}

// WriteKardexCSV streams the full movement history of a company as CSV.
func (s *ReportService) WriteKardexCSV(w io.Writer, companyID string) error {
	movements, err := s.movements.ListByCompany(companyID)
	if err != nil {
		return err
	}

	s.logger.Debug("Exporting kardex CSV",
		zap.String("company_id", companyID),
		zap.Int("movements", len(movements)))
	return report.WriteKardexCSV(w, movements)
}
