package models

import "time"

// Company is a tenant owning master data and stock.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Location is a physical storage position inside a company warehouse.
type Location struct {
	ID        string  `json:"id"`
	CompanyID string  `json:"companyId"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Zone      *string `json:"zone,omitempty"`
}

// Item is a stock-keeping unit. Lot-managed items track expiry per lot.
type Item struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	BaseUnit  string `json:"baseUnit"`
	Category  string `json:"category"`
	HasExpiry bool   `json:"hasExpiry"`
	ByLot     bool   `json:"byLot"`
}

// LotManaged reports whether stock of the item is tracked per lot.
func (i Item) LotManaged() bool {
	return i.HasExpiry || i.ByLot
}

// Lot is a batch of an item sharing one expiry date. ExpiresAt keeps the
// stored textual form; only its first 10 characters are interpreted.
type Lot struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	ItemID    string `json:"itemId"`
	LotCode   string `json:"lotCode"`
	ExpiresAt string `json:"expiresAt"`
}

// StockBalance is the on-hand quantity at one (location, item, lot) key.
// LotID is nil for items not tracked by lot.
type StockBalance struct {
	CompanyID  string    `json:"companyId"`
	LocationID string    `json:"locationId"`
	ItemID     string    `json:"itemId"`
	LotID      *string   `json:"lotId"`
	Quantity   float64   `json:"quantity"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StockCount is a physical count snapshot taken at one stock key,
// reconciled against the ledger-derived balance.
type StockCount struct {
	CompanyID  string    `json:"companyId"`
	LocationID string    `json:"locationId"`
	ItemID     string    `json:"itemId"`
	LotID      *string   `json:"lotId"`
	CountedQty float64   `json:"countedQty"`
	CountedAt  time.Time `json:"countedAt"`
}
