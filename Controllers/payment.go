package Controllers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
	"FuelDesk/Models"
)

// PaymentHandler contains handler methods for depot payments and customer
// recoveries
type PaymentHandler struct {
	DB *gorm.DB
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{DB: db}
}

// CreatePaymentInput is the depot payment payload
type CreatePaymentInput struct {
	DepoID    uint            `json:"depo_id" validate:"required"`
	TripID    *uint           `json:"trip_id"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required,oneof=cash_in_hand bank"`
	AccountID *uint           `json:"account_id"`
	Date      string          `json:"date"`
	Notes     string          `json:"notes"`
}

// CreatePayment pays a depot: debits cash or a bank account, credits the
// depot's pool tagged with the payment, and when tied to a trip settles its
// outstanding lines oldest-first.
// POST /api/payments
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var input CreatePaymentInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if !input.Amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive"})
	}
	if input.Method == Models.MethodBank && input.AccountID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account_id is required for bank payments"})
	}
	date := input.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	var depo Models.Depo
	if err := h.DB.First(&depo, input.DepoID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
	}
	if input.TripID != nil {
		var trip Models.Trip
		if err := h.DB.First(&trip, *input.TripID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trip not found"})
		}
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	payment := Models.Payment{
		DepoID:    input.DepoID,
		TripID:    input.TripID,
		Amount:    input.Amount,
		Method:    input.Method,
		AccountID: input.AccountID,
		Date:      date,
		Notes:     input.Notes,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payment", "message": err.Error()})
	}

	purpose := fmt.Sprintf("Payment to depot %s", depo.Name)
	audit := Models.Transaction{
		TripID:    input.TripID,
		PaymentID: &payment.ID,
		Debit:     input.Amount,
		Purpose:   purpose,
	}
	if input.Method == Models.MethodCashInHand {
		entry, err := Models.RecordCashEntry(tx, input.Amount, decimal.Zero, purpose, time.Time{})
		if err != nil {
			tx.Rollback()
			if handled, resp := ledgerError(c, err); handled {
				return resp
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to debit cash", "message": err.Error()})
		}
		audit.CashInHandID = &entry.ID
	} else {
		var account Models.BankAccount
		if err := tx.First(&account, *input.AccountID).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bank account not found"})
		}
		if account.Balance.LessThan(input.Amount) {
			tx.Rollback()
			_, resp := ledgerError(c, &Ledger.InsufficientFundsError{Available: account.Balance, Required: input.Amount})
			return resp
		}
		if err := tx.Model(&account).UpdateColumn("balance", account.Balance.Sub(input.Amount)).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to debit account", "message": err.Error()})
		}
		audit.AccountID = &account.ID
	}
	if err := tx.Create(&audit).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record transaction", "message": err.Error()})
	}

	_, err := Models.RestorePool(tx, input.DepoID, input.Amount, input.TripID, &payment.ID, nil)
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to restore depot pool", "message": err.Error()})
	}

	if input.TripID != nil {
		if err := settleTripLines(tx, *input.TripID, input.DepoID, input.Amount); err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to settle trip lines", "message": err.Error()})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	if input.TripID != nil {
		if err := evaluateAutoClose(h.DB, *input.TripID); err != nil {
			log.Println("Auto-close evaluation failed for trip", *input.TripID, ":", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded successfully",
		"data":    payment,
	})
}

// GetPayments retrieves payments with optional depot, trip and date filters
// GET /api/payments
func (h *PaymentHandler) GetPayments(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Payment{})
	if depoID := c.Query("depo_id"); depoID != "" {
		query = query.Where("depo_id = ?", depoID)
	}
	if tripID := c.Query("trip_id"); tripID != "" {
		query = query.Where("trip_id = ?", tripID)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		query = query.Where("date <= ?", endDate)
	}

	var payments []Models.Payment
	if err := query.Order("date DESC, id DESC").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve payments"})
	}
	return c.JSON(payments)
}

// CreateRecoveryInput is the customer recovery payload
type CreateRecoveryInput struct {
	CustomerID uint            `json:"customer_id" validate:"required"`
	DepoID     *uint           `json:"depo_id"`
	TripID     *uint           `json:"trip_id"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Method     string          `json:"method" validate:"required,oneof=cash_in_hand bank"`
	AccountID  *uint           `json:"account_id"`
	Date       string          `json:"date"`
	Notes      string          `json:"notes"`
}

// CreateRecovery collects customer money against outstanding sales debt:
// credits cash or a bank account, and when tied to a depot passes the amount
// on as a pool restore tagged with the recovery.
// POST /api/recoveries
func (h *PaymentHandler) CreateRecovery(c *fiber.Ctx) error {
	var input CreateRecoveryInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if !input.Amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive"})
	}
	if input.Method == Models.MethodBank && input.AccountID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account_id is required for bank recoveries"})
	}
	if input.TripID != nil && input.DepoID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "depo_id is required when a recovery is tied to a trip"})
	}
	date := input.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	var customer Models.Customer
	if err := h.DB.First(&customer, input.CustomerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	if input.DepoID != nil {
		var depo Models.Depo
		if err := h.DB.First(&depo, *input.DepoID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
		}
	}
	if input.TripID != nil {
		var trip Models.Trip
		if err := h.DB.First(&trip, *input.TripID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trip not found"})
		}
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	recovery := Models.Recovery{
		CustomerID: input.CustomerID,
		DepoID:     input.DepoID,
		TripID:     input.TripID,
		Amount:     input.Amount,
		Method:     input.Method,
		AccountID:  input.AccountID,
		Date:       date,
		Notes:      input.Notes,
	}
	if err := tx.Create(&recovery).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create recovery", "message": err.Error()})
	}

	purpose := fmt.Sprintf("Recovery from customer %s", customer.Name)
	audit := Models.Transaction{
		TripID:     input.TripID,
		RecoveryID: &recovery.ID,
		Credit:     input.Amount,
		Purpose:    purpose,
	}
	if input.Method == Models.MethodCashInHand {
		entry, err := Models.RecordCashEntry(tx, decimal.Zero, input.Amount, purpose, time.Time{})
		if err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to credit cash", "message": err.Error()})
		}
		audit.CashInHandID = &entry.ID
	} else {
		var account Models.BankAccount
		if err := tx.First(&account, *input.AccountID).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bank account not found"})
		}
		if err := tx.Model(&account).UpdateColumn("balance", account.Balance.Add(input.Amount)).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to credit account", "message": err.Error()})
		}
		audit.AccountID = &account.ID
	}
	if err := tx.Create(&audit).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record transaction", "message": err.Error()})
	}

	if input.DepoID != nil {
		_, err := Models.RestorePool(tx, *input.DepoID, input.Amount, input.TripID, nil, &recovery.ID)
		if err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to restore depot pool", "message": err.Error()})
		}
		if input.TripID != nil {
			if err := settleTripLines(tx, *input.TripID, *input.DepoID, input.Amount); err != nil {
				tx.Rollback()
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to settle trip lines", "message": err.Error()})
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	if input.TripID != nil {
		if err := evaluateAutoClose(h.DB, *input.TripID); err != nil {
			log.Println("Auto-close evaluation failed for trip", *input.TripID, ":", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Recovery recorded successfully",
		"data":    recovery,
	})
}

// GetRecoveries retrieves recoveries with optional customer, depot and date
// filters
// GET /api/recoveries
func (h *PaymentHandler) GetRecoveries(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Recovery{})
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if depoID := c.Query("depo_id"); depoID != "" {
		query = query.Where("depo_id = ?", depoID)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		query = query.Where("date <= ?", endDate)
	}

	var recoveries []Models.Recovery
	if err := query.Order("date DESC, id DESC").Find(&recoveries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve recoveries"})
	}
	return c.JSON(recoveries)
}

// settleTripLines applies a settlement amount to a trip's outstanding
// credit/advance lines for one depot, oldest line first, and bumps the
// trip's paid aggregate by whatever was actually applied.
func settleTripLines(tx *gorm.DB, tripID, depoID uint, amount decimal.Decimal) error {
	var lines []Models.TripDepo
	err := tx.Where("trip_id = ? AND depo_id = ? AND purchase_type IN ?",
		tripID, depoID, []string{string(Ledger.PurchaseCredit), string(Ledger.PurchaseAdvance)}).
		Order("id ASC").Find(&lines).Error
	if err != nil {
		return err
	}

	remaining := amount
	applied := decimal.Zero
	for _, line := range lines {
		if !remaining.IsPositive() {
			break
		}
		outstanding := line.PayableAmount.Sub(line.PaidAmount)
		if !outstanding.IsPositive() {
			continue
		}
		portion := decimal.Min(remaining, outstanding)
		err := tx.Model(&line).UpdateColumn("paid_amount", line.PaidAmount.Add(portion)).Error
		if err != nil {
			return err
		}
		remaining = remaining.Sub(portion)
		applied = applied.Add(portion)
	}

	if applied.IsPositive() {
		err := tx.Model(&Models.Trip{}).Where("id = ?", tripID).
			UpdateColumn("paid", gorm.Expr("paid + ?", applied)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
