package Controllers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
	"FuelDesk/Models"
)

// SaleHandler contains handler methods for fuel sale routes
type SaleHandler struct {
	DB *gorm.DB
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(db *gorm.DB) *SaleHandler {
	return &SaleHandler{DB: db}
}

// RecordSaleInput is the sale recording payload
type RecordSaleInput struct {
	TripProductID uint            `json:"trip_product_id" validate:"required"`
	CustomerID    uint            `json:"customer_id" validate:"required"`
	Fuel          decimal.Decimal `json:"fuel" validate:"required"`
	Rate          decimal.Decimal `json:"rate" validate:"required"`
	Discount      decimal.Decimal `json:"discount"`
	Date          string          `json:"date"`
}

// RecordSale records a fuel sale against a trip product, bumping the
// product's sold quantity. The auto-close check runs after commit; its
// failure never fails the sale.
// POST /api/sales
func (h *SaleHandler) RecordSale(c *fiber.Ctx) error {
	var input RecordSaleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if !input.Fuel.IsPositive() || !input.Rate.IsPositive() || input.Discount.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fuel and rate must be positive, discount must not be negative"})
	}
	saleDate := input.Date
	if saleDate == "" {
		saleDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", saleDate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	var customer Models.Customer
	if err := h.DB.First(&customer, input.CustomerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	var product Models.TripProduct
	if err := tx.First(&product, input.TripProductID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trip product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error", "message": err.Error()})
	}

	var trip Models.Trip
	if err := tx.First(&trip, product.TripID).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trip not found"})
	}
	if trip.Status == Models.TripStatusCompleted || trip.Status == Models.TripStatusCancelled {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot record sales on a " + trip.Status + " trip"})
	}

	remaining := product.QuantityLtr.Sub(product.QtySold)
	if input.Fuel.GreaterThan(remaining) {
		tx.Rollback()
		_, resp := ledgerError(c, &Ledger.QuantityExceededError{Remaining: remaining, Requested: input.Fuel})
		return resp
	}

	err := tx.Model(&product).UpdateColumn("qty_sold", product.QtySold.Add(input.Fuel)).Error
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update sold quantity", "message": err.Error()})
	}

	sale := Models.Sale{
		TripID:        product.TripID,
		TripProductID: product.ID,
		CustomerID:    input.CustomerID,
		Fuel:          input.Fuel,
		Rate:          input.Rate,
		Discount:      input.Discount,
		TotalAmount:   input.Rate.Sub(input.Discount).Mul(input.Fuel),
		Date:          saleDate,
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record sale", "message": err.Error()})
	}

	// Mark first sale activity on the trip.
	if trip.Status == Models.TripStatusPending {
		if err := tx.Model(&trip).UpdateColumn("status", Models.TripStatusInProgress).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update trip status", "message": err.Error()})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	if err := evaluateAutoClose(h.DB, product.TripID); err != nil {
		log.Println("Auto-close evaluation failed for trip", product.TripID, ":", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sale recorded successfully",
		"data":    sale,
	})
}

// GetSales retrieves sales with optional trip, customer and date filters
// GET /api/sales
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Sale{})
	if tripID := c.Query("trip_id"); tripID != "" {
		query = query.Where("trip_id = ?", tripID)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		query = query.Where("date <= ?", endDate)
	}

	var sales []Models.Sale
	if err := query.Order("date DESC, id DESC").Find(&sales).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve sales"})
	}
	return c.JSON(sales)
}

// DeleteSale reverses a sale, returning its volume to the product line
// DELETE /api/sales/:id
func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	var sale Models.Sale
	if err := tx.First(&sale, id).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Sale not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error", "message": err.Error()})
	}

	var trip Models.Trip
	if err := tx.First(&trip, sale.TripID).Error; err == nil {
		if trip.Status == Models.TripStatusCompleted || trip.Status == Models.TripStatusCancelled {
			tx.Rollback()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot delete sales on a " + trip.Status + " trip"})
		}
	}

	err = tx.Model(&Models.TripProduct{}).Where("id = ?", sale.TripProductID).
		UpdateColumn("qty_sold", gorm.Expr("qty_sold - ?", sale.Fuel)).Error
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to restore sold quantity", "message": err.Error()})
	}
	if err := tx.Delete(&sale).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete sale", "message": err.Error()})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Sale deleted successfully"})
}

// evaluateAutoClose completes a trip once every active payment line is fully
// paid and all purchased volume has been resold. It only ever moves the
// status forward; Completed and Cancelled trips are left alone.
func evaluateAutoClose(db *gorm.DB, tripID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var trip Models.Trip
		if err := tx.First(&trip, tripID).Error; err != nil {
			return err
		}
		if trip.Status == Models.TripStatusCompleted || trip.Status == Models.TripStatusCancelled {
			return nil
		}

		var tripDepos []Models.TripDepo
		if err := tx.Where("trip_id = ?", tripID).Find(&tripDepos).Error; err != nil {
			return err
		}
		for _, td := range tripDepos {
			if td.PaidAmount.LessThan(td.PayableAmount) {
				return nil
			}
		}

		var products []Models.TripProduct
		if err := tx.Where("trip_id = ?", tripID).Find(&products).Error; err != nil {
			return err
		}
		totalQty := decimal.Zero
		totalSold := decimal.Zero
		for _, p := range products {
			totalQty = totalQty.Add(p.QuantityLtr)
			totalSold = totalSold.Add(p.QtySold)
		}
		if totalQty.IsPositive() && totalSold.LessThan(totalQty) {
			return nil
		}

		now := time.Now()
		return tx.Model(&trip).UpdateColumns(map[string]interface{}{
			"status":       Models.TripStatusCompleted,
			"completed_at": &now,
		}).Error
	})
}
