package Controllers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
	"FuelDesk/Models"
)

// AccountHandler contains handler methods for bank account routes
type AccountHandler struct {
	DB *gorm.DB
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{DB: db}
}

// AccountInput is the bank account create/update payload
type AccountInput struct {
	Name      string          `json:"name" validate:"required"`
	Bank      string          `json:"bank"`
	AccountNo string          `json:"account_no"`
	Balance   decimal.Decimal `json:"balance"`
}

// GetAccounts retrieves all bank accounts
// GET /api/accounts
func (h *AccountHandler) GetAccounts(c *fiber.Ctx) error {
	var accounts []Models.BankAccount
	if err := h.DB.Order("name ASC").Find(&accounts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve accounts"})
	}
	return c.JSON(accounts)
}

// GetAccount retrieves a single bank account
// GET /api/accounts/:id
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}
	var account Models.BankAccount
	if err := h.DB.First(&account, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error", "message": err.Error()})
	}
	return c.JSON(account)
}

// CreateAccount creates a bank account
// POST /api/accounts
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var input AccountInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if input.Balance.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Opening balance must not be negative"})
	}

	account := Models.BankAccount{
		Name:      input.Name,
		Bank:      input.Bank,
		AccountNo: input.AccountNo,
		Balance:   input.Balance,
	}
	if err := h.DB.Create(&account).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An account with this name already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create account", "message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"data":    account,
	})
}

// UpdateAccount updates a bank account's descriptive fields. Balance is not
// editable here; it only moves through transfers and ledger workflows.
// PATCH /api/accounts/:id
func (h *AccountHandler) UpdateAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}
	var account Models.BankAccount
	if err := h.DB.First(&account, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}

	var input AccountInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Name != "" {
		account.Name = input.Name
	}
	if input.Bank != "" {
		account.Bank = input.Bank
	}
	if input.AccountNo != "" {
		account.AccountNo = input.AccountNo
	}
	if err := h.DB.Save(&account).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update account", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Account updated successfully", "data": account})
}

// DeleteAccount removes an account that no audit transaction references
// DELETE /api/accounts/:id
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}
	var account Models.BankAccount
	if err := h.DB.First(&account, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}

	var refs int64
	h.DB.Model(&Models.Transaction{}).Where("account_id = ?", account.ID).Count(&refs)
	if refs > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Account has transaction history and cannot be deleted"})
	}
	if err := h.DB.Delete(&account).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete account", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}

// TransferInput moves money between a bank account and cash-in-hand
type TransferInput struct {
	AccountID uint            `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Direction string          `json:"direction" validate:"required,oneof=to_cash from_cash"`
	Notes     string          `json:"notes"`
}

// Transfer moves money between a bank account and the cash-in-hand ledger.
// The cash entry and the audit transaction land in one DB transaction with
// the account balance change.
// POST /api/accounts/transfer
func (h *AccountHandler) Transfer(c *fiber.Ctx) error {
	var input TransferInput
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

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	var account Models.BankAccount
	if err := tx.First(&account, input.AccountID).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}

	var purpose string
	var cashDebit, cashCredit decimal.Decimal
	var newBalance decimal.Decimal
	if input.Direction == "to_cash" {
		if account.Balance.LessThan(input.Amount) {
			tx.Rollback()
			_, resp := ledgerError(c, &Ledger.InsufficientFundsError{Available: account.Balance, Required: input.Amount})
			return resp
		}
		purpose = fmt.Sprintf("Withdrawal from %s", account.Name)
		cashCredit = input.Amount
		newBalance = account.Balance.Sub(input.Amount)
	} else {
		purpose = fmt.Sprintf("Deposit to %s", account.Name)
		cashDebit = input.Amount
		newBalance = account.Balance.Add(input.Amount)
	}
	if input.Notes != "" {
		purpose += ": " + input.Notes
	}

	entry, err := Models.RecordCashEntry(tx, cashDebit, cashCredit, purpose, time.Time{})
	if err != nil {
		tx.Rollback()
		if handled, resp := ledgerError(c, err); handled {
			return resp
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record cash entry", "message": err.Error()})
	}
	if err := tx.Model(&account).UpdateColumn("balance", newBalance).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update account balance", "message": err.Error()})
	}

	// Credit/debit on the audit row follow the account's perspective.
	audit := Models.Transaction{
		AccountID:    &account.ID,
		CashInHandID: &entry.ID,
		Debit:        cashCredit,
		Credit:       cashDebit,
		Purpose:      purpose,
	}
	if err := tx.Create(&audit).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record transaction", "message": err.Error()})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"message": "Transfer completed successfully",
		"balance": newBalance,
	})
}

// UploadQR attaches a payment QR image to an account. The upload is
// normalized and resized before saving; a previously attached image is
// removed best-effort.
// POST /api/accounts/:id/qr
func (h *AccountHandler) UploadQR(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}
	var account Models.BankAccount
	if err := h.DB.First(&account, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}

	fileHeader, err := c.FormFile("qr_image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "qr_image file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to open uploaded file"})
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Uploaded file is not a valid image"})
	}
	if img.Bounds().Dx() > 800 {
		img = imaging.Resize(img, 800, 0, imaging.Lanczos)
	}

	uploadDir := filepath.Join(Models.Settings.UploadDir, "qr")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to prepare upload directory", "message": err.Error()})
	}
	outputPath := filepath.Join(uploadDir, fmt.Sprintf("account_%d_%d.png", account.ID, time.Now().Unix()))
	if err := imaging.Save(img, outputPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save image", "message": err.Error()})
	}

	stalePath := account.QRImagePath
	if err := h.DB.Model(&account).UpdateColumn("qr_image_path", outputPath).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update account", "message": err.Error()})
	}

	if stalePath != "" {
		if err := os.Remove(stalePath); err != nil && !os.IsNotExist(err) {
			// One retry after a short pause; the file may still be served.
			time.Sleep(200 * time.Millisecond)
			if err := os.Remove(stalePath); err != nil && !os.IsNotExist(err) {
				log.Printf("Failed to remove stale QR image %s: %v", stalePath, err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"message":       "QR image uploaded successfully",
		"qr_image_path": outputPath,
	})
}
