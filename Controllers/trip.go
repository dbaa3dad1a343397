package Controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
	"FuelDesk/Models"
)

// TripHandler contains handler methods for trip routes
type TripHandler struct {
	DB *gorm.DB
}

// NewTripHandler creates a new trip handler
func NewTripHandler(db *gorm.DB) *TripHandler {
	return &TripHandler{DB: db}
}

// product types that carry per-container volume breakdowns
var containerProductTypes = []string{"cylinder", "container"}

// TripProductInput is one product line in a trip creation request
type TripProductInput struct {
	DepoID       uint            `json:"depo_id" validate:"required"`
	ProductType  string          `json:"product_type" validate:"required"`
	QuantityLtr  decimal.Decimal `json:"quantity_ltr" validate:"required"`
	InvoiceRate  decimal.Decimal `json:"invoice_rate" validate:"required"`
	Discount     decimal.Decimal `json:"discount"`
	PurchaseType string          `json:"purchase_type" validate:"required,oneof=cash advance credit"`
	PaidAmount   decimal.Decimal `json:"paid_amount"` // advance prepayment
	Method       string          `json:"method" validate:"omitempty,oneof=cash_in_hand bank"`
	AccountID    *uint           `json:"account_id"`
	Containers   datatypes.JSON  `json:"containers"`
}

// CreateTripRequest is the trip creation payload
type CreateTripRequest struct {
	TripNo    string             `json:"trip_no" validate:"required"`
	Date      string             `json:"date" validate:"required"`
	VehicleID uint               `json:"vehicle_id" validate:"required"`
	Products  []TripProductInput `json:"products" validate:"required,min=1,dive"`
}

// tripLine is one resolved product line with its computed amounts
type tripLine struct {
	input   TripProductInput
	ptype   Ledger.PurchaseType
	payable decimal.Decimal
	paid    decimal.Decimal
}

// accountGroup aggregates the cash/advance paid amounts per payment account
type accountGroup struct {
	method    string
	accountID *uint
	total     decimal.Decimal
}

// CreateTrip runs the multi-product trip creation workflow: validation,
// per-depot credit pre-check, account debits with audit transactions, trip
// and line inserts, then pool draws. All writes share one transaction; any
// failure rolls every step back.
// POST /api/trips
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	var req CreateTripRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	var vehicle Models.Vehicle
	if err := h.DB.First(&vehicle, req.VehicleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	lines := make([]tripLine, 0, len(req.Products))
	for i, input := range req.Products {
		ptype := Ledger.PurchaseType(input.PurchaseType)
		if slices.Contains(containerProductTypes, strings.ToLower(input.ProductType)) && len(input.Containers) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Product %d: container breakdown is required for %s products", i+1, input.ProductType),
			})
		}
		if !input.QuantityLtr.IsPositive() || !input.InvoiceRate.IsPositive() || input.Discount.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Product %d: quantity and rate must be positive, discount must not be negative", i+1),
			})
		}
		if ptype.DebitsAccount() {
			if input.Method == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("Product %d: payment method is required for %s purchases", i+1, ptype),
				})
			}
			if input.Method == Models.MethodBank && input.AccountID == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("Product %d: account_id is required for bank payments", i+1),
				})
			}
			if ptype == Ledger.PurchaseAdvance && !input.PaidAmount.IsPositive() {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("Product %d: advance purchases need a positive paid_amount", i+1),
				})
			}
		}

		var depo Models.Depo
		if err := h.DB.First(&depo, input.DepoID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("Product %d: depot not found", i+1),
			})
		}

		payable := input.InvoiceRate.Sub(input.Discount).Mul(input.QuantityLtr)
		lines = append(lines, tripLine{
			input:   input,
			ptype:   ptype,
			payable: payable,
			paid:    ptype.PaidAmount(payable, input.PaidAmount),
		})
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	// Credit pre-check: reject the whole trip when any depot is short, so no
	// partial commit ever happens.
	creditPerDepo := make(map[uint]decimal.Decimal)
	for _, line := range lines {
		if line.ptype == Ledger.PurchaseCredit {
			creditPerDepo[line.input.DepoID] = creditPerDepo[line.input.DepoID].Add(line.payable)
		}
	}
	for depoID, required := range creditPerDepo {
		available, err := Models.PoolAvailable(tx, depoID)
		if err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check depot credit", "message": err.Error()})
		}
		if required.GreaterThan(available) {
			tx.Rollback()
			_, resp := ledgerError(c, &Ledger.CreditLimitExceededError{DepoID: depoID, Available: available, Required: required})
			return resp
		}
	}

	totalAmount := decimal.Zero
	totalPaid := decimal.Zero
	for _, line := range lines {
		totalAmount = totalAmount.Add(line.payable)
		totalPaid = totalPaid.Add(line.paid)
	}

	trip := Models.Trip{
		TripNo:         req.TripNo,
		Date:           req.Date,
		VehicleID:      vehicle.ID,
		VehicleNoPlate: vehicle.NoPlate,
		TotalAmount:    totalAmount,
		Paid:           totalPaid,
		Status:         Models.TripStatusPending,
	}
	if err := tx.Create(&trip).Error; err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A trip with this number already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create trip", "message": err.Error()})
	}

	// Debit each payment account once per group and leave one audit
	// transaction per group.
	for _, group := range groupByAccount(lines) {
		purpose := fmt.Sprintf("Fuel purchase, trip %s", trip.TripNo)
		if group.method == Models.MethodCashInHand {
			entry, err := Models.RecordCashEntry(tx, group.total, decimal.Zero, purpose, time.Time{})
			if err != nil {
				tx.Rollback()
				if handled, resp := ledgerError(c, err); handled {
					return resp
				}
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to debit cash", "message": err.Error()})
			}
			audit := Models.Transaction{
				CashInHandID: &entry.ID,
				TripID:       &trip.ID,
				Debit:        group.total,
				Purpose:      purpose,
			}
			if err := tx.Create(&audit).Error; err != nil {
				tx.Rollback()
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record transaction", "message": err.Error()})
			}
			continue
		}

		var account Models.BankAccount
		if err := tx.First(&account, *group.accountID).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bank account not found"})
		}
		if account.Balance.LessThan(group.total) {
			tx.Rollback()
			_, resp := ledgerError(c, &Ledger.InsufficientFundsError{Available: account.Balance, Required: group.total})
			return resp
		}
		err := tx.Model(&account).UpdateColumn("balance", account.Balance.Sub(group.total)).Error
		if err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to debit account", "message": err.Error()})
		}
		audit := Models.Transaction{
			AccountID: &account.ID,
			TripID:    &trip.ID,
			Debit:     group.total,
			Purpose:   purpose,
		}
		if err := tx.Create(&audit).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record transaction", "message": err.Error()})
		}
	}

	// Product lines and their payment classification rows.
	outstandingPerDepo := make(map[uint]decimal.Decimal)
	for _, line := range lines {
		product := Models.TripProduct{
			TripID:      trip.ID,
			DepoID:      line.input.DepoID,
			ProductType: line.input.ProductType,
			QuantityLtr: line.input.QuantityLtr,
			InvoiceRate: line.input.InvoiceRate,
			Discount:    line.input.Discount,
			Containers:  line.input.Containers,
		}
		if err := tx.Create(&product).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create trip product", "message": err.Error()})
		}

		tripDepo := Models.TripDepo{
			TripID:        trip.ID,
			DepoID:        line.input.DepoID,
			ProductID:     product.ID,
			PurchaseType:  string(line.ptype),
			Method:        line.input.Method,
			AccountID:     line.input.AccountID,
			PaidAmount:    line.paid,
			PayableAmount: line.payable,
		}
		if err := tx.Create(&tripDepo).Error; err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create trip depot row", "message": err.Error()})
		}

		if line.ptype.DrawsPool() {
			outstanding := line.payable.Sub(line.paid)
			if outstanding.IsPositive() {
				outstandingPerDepo[line.input.DepoID] = outstandingPerDepo[line.input.DepoID].Add(outstanding)
			}
		}
	}

	// Pool draws: one debit per depot for its aggregate outstanding amount.
	// Cash lines never touch the pool.
	for depoID, amount := range outstandingPerDepo {
		if _, err := Models.DrawPool(tx, depoID, trip.ID, amount); err != nil {
			tx.Rollback()
			if handled, resp := ledgerError(c, err); handled {
				return resp
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to draw depot pool", "message": err.Error()})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	h.DB.Preload("TripProducts").Preload("TripDepos").First(&trip, trip.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Trip created successfully",
		"data":    trip,
	})
}

func groupByAccount(lines []tripLine) []accountGroup {
	var groups []accountGroup
	index := make(map[string]int)
	for _, line := range lines {
		if !line.ptype.DebitsAccount() || !line.paid.IsPositive() {
			continue
		}
		key := line.input.Method
		if line.input.AccountID != nil {
			key += ":" + strconv.FormatUint(uint64(*line.input.AccountID), 10)
		}
		if i, ok := index[key]; ok {
			groups[i].total = groups[i].total.Add(line.paid)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, accountGroup{
			method:    line.input.Method,
			accountID: line.input.AccountID,
			total:     line.paid,
		})
	}
	return groups
}

// GetTrips retrieves trips with optional status and date range filters
// GET /api/trips
func (h *TripHandler) GetTrips(c *fiber.Ctx) error {
	status := c.Query("status")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	validStatuses := []string{
		Models.TripStatusPending, Models.TripStatusInProgress, Models.TripStatusCompleted,
	}
	query := h.DB.Model(&Models.Trip{})
	if status != "" {
		if !slices.Contains(validStatuses, status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}
	if startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("date <= ?", endDate)
	}

	var trips []Models.Trip
	if err := query.Order("date DESC, id DESC").Find(&trips).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trips"})
	}
	return c.JSON(trips)
}

// GetTrip retrieves a trip with its product and payment lines
// GET /api/trips/:id
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trip ID"})
	}

	var trip Models.Trip
	err = h.DB.Preload("TripProducts").Preload("TripDepos").First(&trip, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trip not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error", "message": err.Error()})
	}

	var sales []Models.Sale
	h.DB.Where("trip_id = ?", trip.ID).Order("id ASC").Find(&sales)

	return c.JSON(fiber.Map{
		"data":  trip,
		"sales": sales,
	})
}

// tripReversal is the effect list for a cascading trip deletion, collected
// in full before any write so the cascade is applied in one deterministic
// sweep instead of an order-sensitive walk.
type tripReversal struct {
	trip         Models.Trip
	products     []Models.TripProduct
	sales        []Models.Sale
	tripDepos    []Models.TripDepo
	poolDraws    []Models.PoolEntry
	payments     []Models.Payment
	paymentPool  []Models.PoolEntry
	recoveries   []Models.Recovery
	recoveryPool []Models.PoolEntry
	transactions []Models.Transaction
}

// DeleteTrip cancels a trip by soft-deleting it and everything hanging off
// it: products, sales, trip_depos, pool draws (with per-depot recompute),
// payments and recoveries with their pool restores, and finally the audit
// transactions with their cash and bank reversals.
// DELETE /api/trips/:id
func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trip ID"})
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	reversal, err := collectTripReversal(tx, uint(id))
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trip not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to collect trip references", "message": err.Error()})
	}

	if err := applyTripReversal(tx, reversal); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel trip", "message": err.Error()})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Trip cancelled successfully"})
}

func collectTripReversal(tx *gorm.DB, tripID uint) (*tripReversal, error) {
	var r tripReversal
	if err := tx.First(&r.trip, tripID).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Find(&r.products).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Find(&r.sales).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Find(&r.tripDepos).Error; err != nil {
		return nil, err
	}
	// Draw entries created at trip creation carry only the trip reference.
	err := tx.Where("trip_id = ? AND payment_id IS NULL AND recovery_id IS NULL", tripID).
		Find(&r.poolDraws).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Find(&r.payments).Error; err != nil {
		return nil, err
	}
	err = tx.Where("trip_id = ? AND payment_id IS NOT NULL AND recovery_id IS NULL", tripID).
		Find(&r.paymentPool).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Find(&r.recoveries).Error; err != nil {
		return nil, err
	}
	err = tx.Where("trip_id = ? AND recovery_id IS NOT NULL", tripID).
		Find(&r.recoveryPool).Error
	if err != nil {
		return nil, err
	}

	paymentIDs := collectIDs(len(r.payments), func(i int) uint { return r.payments[i].ID })
	recoveryIDs := collectIDs(len(r.recoveries), func(i int) uint { return r.recoveries[i].ID })
	query := tx.Where("trip_id = ?", tripID)
	if len(paymentIDs) > 0 {
		query = query.Or("payment_id IN ?", paymentIDs)
	}
	if len(recoveryIDs) > 0 {
		query = query.Or("recovery_id IN ?", recoveryIDs)
	}
	if err := query.Find(&r.transactions).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func applyTripReversal(tx *gorm.DB, r *tripReversal) error {
	if err := tx.Model(&r.trip).UpdateColumn("status", Models.TripStatusCancelled).Error; err != nil {
		return err
	}
	if err := tx.Delete(&r.trip).Error; err != nil {
		return err
	}
	if err := deleteByID(tx, &Models.TripProduct{}, collectIDs(len(r.products), func(i int) uint { return r.products[i].ID })); err != nil {
		return err
	}
	if err := deleteByID(tx, &Models.Sale{}, collectIDs(len(r.sales), func(i int) uint { return r.sales[i].ID })); err != nil {
		return err
	}
	if err := deleteByID(tx, &Models.TripDepo{}, collectIDs(len(r.tripDepos), func(i int) uint { return r.tripDepos[i].ID })); err != nil {
		return err
	}

	// Pool draws: delete, then replay each touched depot from the earliest
	// deleted row forward. Earlier rows are unaffected.
	if err := reversePoolRows(tx, r.poolDraws, false); err != nil {
		return err
	}

	// Payment and recovery restores had increased available credit; removing
	// them pulls the mirrored depot balance back down on top of the
	// recompute, since the sentinel replay alone would not reflect a ceiling
	// change made independently of these rows.
	if err := deleteByID(tx, &Models.Payment{}, collectIDs(len(r.payments), func(i int) uint { return r.payments[i].ID })); err != nil {
		return err
	}
	if err := reversePoolRows(tx, r.paymentPool, true); err != nil {
		return err
	}

	if err := deleteByID(tx, &Models.Recovery{}, collectIDs(len(r.recoveries), func(i int) uint { return r.recoveries[i].ID })); err != nil {
		return err
	}
	if err := reversePoolRows(tx, r.recoveryPool, true); err != nil {
		return err
	}

	// Audit-trail reversal walk: undo whatever each transaction did to cash
	// or a bank account, then retire the transaction itself.
	needCashRecompute := false
	for _, t := range r.transactions {
		if err := tx.Delete(&Models.Transaction{}, t.ID).Error; err != nil {
			return err
		}
		if t.CashInHandID != nil {
			if err := tx.Delete(&Models.CashEntry{}, *t.CashInHandID).Error; err != nil {
				return err
			}
			needCashRecompute = true
		}
		if t.AccountID != nil {
			err := tx.Model(&Models.BankAccount{}).Where("id = ?", *t.AccountID).
				UpdateColumn("balance", gorm.Expr("balance - ? + ?", t.Credit, t.Debit)).Error
			if err != nil {
				return err
			}
		}
	}
	if needCashRecompute {
		if err := Models.RecomputeCash(tx); err != nil {
			return err
		}
	}
	return nil
}

// reversePoolRows soft-deletes the given pool rows and recomputes each
// affected depot from its earliest deleted row forward. With undoRestore set
// the depot's mirrored balance is additionally decremented by the reversed
// credits.
func reversePoolRows(tx *gorm.DB, rows []Models.PoolEntry, undoRestore bool) error {
	if len(rows) == 0 {
		return nil
	}

	earliest := make(map[uint]uint)
	credits := make(map[uint]decimal.Decimal)
	for _, row := range rows {
		if err := tx.Delete(&Models.PoolEntry{}, row.ID).Error; err != nil {
			return err
		}
		if from, ok := earliest[row.DepoID]; !ok || row.ID < from {
			earliest[row.DepoID] = row.ID
		}
		credits[row.DepoID] = credits[row.DepoID].Add(row.Credit)
	}

	for depoID, fromID := range earliest {
		if err := Models.RecalculatePool(tx, depoID, fromID); err != nil {
			return err
		}
		if undoRestore && credits[depoID].IsPositive() {
			err := tx.Model(&Models.Depo{}).Where("id = ?", depoID).
				UpdateColumn("balance", gorm.Expr("balance - ?", credits[depoID])).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteByID(tx *gorm.DB, model interface{}, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Delete(model, ids).Error
}

func collectIDs(n int, id func(int) uint) []uint {
	ids := make([]uint, n)
	for i := range ids {
		ids[i] = id(i)
	}
	return ids
}
