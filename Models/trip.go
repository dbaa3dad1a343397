package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Trip statuses. Cancelled is only reachable through the cascading soft
// delete, never through a plain status edit.
const (
	TripStatusPending    = "Pending"
	TripStatusInProgress = "InProgress"
	TripStatusCompleted  = "Completed"
	TripStatusCancelled  = "Cancelled"
)

// Trip is one vehicle dispatch purchasing fuel from one or more depots for
// resale. TotalAmount and Paid are aggregates over its product lines.
type Trip struct {
	gorm.Model
	TripNo         string          `json:"trip_no" gorm:"not null;uniqueIndex"`
	Date           string          `json:"date" gorm:"index"` // YYYY-MM-DD
	VehicleID      uint            `json:"vehicle_id" gorm:"index"`
	VehicleNoPlate string          `json:"vehicle_no_plate"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(20,2);not null"`
	Paid           decimal.Decimal `json:"paid" gorm:"type:decimal(20,2);not null"`
	Status         string          `json:"status" gorm:"type:varchar(20);not null;index"`
	CompletedAt    *time.Time      `json:"completed_at"`

	TripProducts []TripProduct `json:"trip_products,omitempty" gorm:"foreignKey:TripID"`
	TripDepos    []TripDepo    `json:"trip_depos,omitempty" gorm:"foreignKey:TripID"`
}

func (Trip) TableName() string {
	return "trips"
}

// TripProduct is one depot+fuel-type line item within a trip. QtySold
// accumulates as sales are recorded against it, never past QuantityLtr.
type TripProduct struct {
	gorm.Model
	TripID      uint            `json:"trip_id" gorm:"index;not null"`
	DepoID      uint            `json:"depo_id" gorm:"index;not null"`
	ProductType string          `json:"product_type" gorm:"not null"`
	QuantityLtr decimal.Decimal `json:"quantity_ltr" gorm:"type:decimal(20,2);not null"`
	InvoiceRate decimal.Decimal `json:"invoice_rate" gorm:"type:decimal(20,4);not null"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:decimal(20,4);not null"`
	QtySold     decimal.Decimal `json:"qty_sold" gorm:"type:decimal(20,2);not null"`
	Containers  datatypes.JSON  `json:"containers,omitempty"` // per-container volumes for container products
}

// PayableAmount is (invoiceRate - discount) * quantityLtr.
func (p *TripProduct) PayableAmount() decimal.Decimal {
	return p.InvoiceRate.Sub(p.Discount).Mul(p.QuantityLtr)
}

// TripDepo carries the payment classification for one trip product line.
type TripDepo struct {
	gorm.Model
	TripID        uint            `json:"trip_id" gorm:"index;not null"`
	DepoID        uint            `json:"depo_id" gorm:"index;not null"`
	ProductID     uint            `json:"product_id" gorm:"index;not null"`
	PurchaseType  string          `json:"purchase_type" gorm:"type:varchar(10);not null"` // cash, advance, credit
	Method        string          `json:"method" gorm:"type:varchar(20)"`                 // cash_in_hand or bank, for cash/advance
	AccountID     *uint           `json:"account_id"`
	PaidAmount    decimal.Decimal `json:"paid_amount" gorm:"type:decimal(20,2);not null"`
	PayableAmount decimal.Decimal `json:"payable_amount" gorm:"type:decimal(20,2);not null"`
}

func (TripDepo) TableName() string {
	return "trip_depos"
}

// Sale records fuel volume sold from a trip product to a customer.
type Sale struct {
	gorm.Model
	TripID        uint            `json:"trip_id" gorm:"index;not null"`
	TripProductID uint            `json:"trip_product_id" gorm:"index;not null"`
	CustomerID    uint            `json:"customer_id" gorm:"index;not null"`
	Fuel          decimal.Decimal `json:"fuel" gorm:"type:decimal(20,2);not null"` // volume sold, litres
	Rate          decimal.Decimal `json:"rate" gorm:"type:decimal(20,4);not null"`
	Discount      decimal.Decimal `json:"discount" gorm:"type:decimal(20,4);not null"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(20,2);not null"`
	Date          string          `json:"date" gorm:"index"`
}

func (Sale) TableName() string {
	return "pol_sales"
}
