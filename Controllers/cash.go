package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// CashController handles the cash-in-hand ledger endpoints
type CashController struct {
	DB *gorm.DB
}

// NewCashController creates a new CashController
func NewCashController(db *gorm.DB) *CashController {
	return &CashController{DB: db}
}

// GetCashEntries retrieves ledger entries, optionally filtered by date range
func (c *CashController) GetCashEntries(ctx *fiber.Ctx) error {
	startDate := ctx.Query("start_date")
	endDate := ctx.Query("end_date")

	query := c.DB.Model(&Models.CashEntry{})
	if startDate != "" {
		query = query.Where("DATE(date) >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("DATE(date) <= ?", endDate)
	}

	var entries []Models.CashEntry
	if err := query.Order("date ASC, id ASC").Find(&entries).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve cash entries"})
	}

	return ctx.JSON(entries)
}

// CreateCashEntryInput is the payload for a manual ledger entry
type CreateCashEntryInput struct {
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Purpose string          `json:"purpose" validate:"required"`
	Date    string          `json:"date"` // YYYY-MM-DD, optional backdate
}

// CreateCashEntry records a manual cash entry
func (c *CashController) CreateCashEntry(ctx *fiber.Ctx) error {
	var input CreateCashEntryInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if input.Debit.IsZero() && input.Credit.IsZero() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Either debit or credit must be nonzero"})
	}

	var date time.Time
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}
		date = parsed
	}

	tx := c.DB.Begin()
	if tx.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	entry, err := Models.RecordCashEntry(tx, input.Debit, input.Credit, input.Purpose, date)
	if err != nil {
		tx.Rollback()
		if handled, resp := ledgerError(ctx, err); handled {
			return resp
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record cash entry", "message": err.Error()})
	}

	if err := tx.Commit().Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(entry)
}

// ReverseCashEntry soft deletes an entry and recomputes the running balances
func (c *CashController) ReverseCashEntry(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entry ID"})
	}

	var entry Models.CashEntry
	if result := c.DB.First(&entry, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Cash entry not found"})
	}

	tx := c.DB.Begin()
	if tx.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	if err := Models.ReverseCashEntry(tx, uint(id)); err != nil {
		tx.Rollback()
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reverse cash entry", "message": err.Error()})
	}

	if err := tx.Commit().Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	return ctx.JSON(fiber.Map{"message": "Cash entry reversed successfully"})
}

// GetCashBalance returns the authoritative balance (aggregate over active rows)
func (c *CashController) GetCashBalance(ctx *fiber.Ctx) error {
	balance, err := Models.CashBalance(c.DB)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute balance", "message": err.Error()})
	}
	return ctx.JSON(fiber.Map{"balance": balance})
}
