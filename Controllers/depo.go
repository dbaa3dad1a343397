package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// DepoController handles depot and pool-ledger endpoints
type DepoController struct {
	DB *gorm.DB
}

// NewDepoController creates a new DepoController
func NewDepoController(db *gorm.DB) *DepoController {
	return &DepoController{DB: db}
}

// GetDepos retrieves all depots
func (c *DepoController) GetDepos(ctx *fiber.Ctx) error {
	var depos []Models.Depo
	if result := c.DB.Find(&depos); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve depots"})
	}
	return ctx.JSON(depos)
}

// GetDepo retrieves a single depot by ID
func (c *DepoController) GetDepo(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid depot ID"})
	}

	var depo Models.Depo
	if result := c.DB.First(&depo, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
	}
	return ctx.JSON(depo)
}

// CreateDepoInput carries the depot fields plus its initial credit ceiling
type CreateDepoInput struct {
	Name    string          `json:"name" validate:"required"`
	Contact string          `json:"contact"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"` // credit ceiling
}

// CreateDepo creates a depot and seeds its pool sentinel row
func (c *DepoController) CreateDepo(ctx *fiber.Ctx) error {
	var input CreateDepoInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}
	if input.Balance.IsNegative() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Credit ceiling must not be negative"})
	}

	depo := Models.Depo{
		Name:    input.Name,
		Contact: input.Contact,
		Address: input.Address,
		Balance: input.Balance,
	}

	tx := c.DB.Begin()
	if tx.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	if err := tx.Create(&depo).Error; err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A depot with this name already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create depot"})
	}

	if _, err := Models.SeedPool(tx, depo.ID, input.Balance); err != nil {
		tx.Rollback()
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to seed depot pool", "message": err.Error()})
	}

	if err := tx.Commit().Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(depo)
}

// UpdateDepo updates depot fields. Changing the credit ceiling is only
// allowed while the depot has no active trip references, and rewrites the
// pool sentinel followed by a full recompute from it.
func (c *DepoController) UpdateDepo(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid depot ID"})
	}

	var depo Models.Depo
	if result := c.DB.First(&depo, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
	}

	var input CreateDepoInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ceiling, err := Models.PoolCeiling(c.DB, depo.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read depot ceiling", "message": err.Error()})
	}
	ceilingChanged := !input.Balance.IsZero() && !input.Balance.Equal(ceiling)

	if ceilingChanged {
		count, err := Models.ActiveTripDepoCount(c.DB, depo.ID)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check trip references", "message": err.Error()})
		}
		if count > 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Ceiling locked",
				"message": "The credit ceiling cannot be edited while the depot has active trips",
			})
		}
	}

	tx := c.DB.Begin()
	if tx.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transaction error", "message": tx.Error.Error()})
	}

	updates := make(map[string]interface{})
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Contact != "" {
		updates["contact"] = input.Contact
	}
	if input.Address != "" {
		updates["address"] = input.Address
	}
	if len(updates) > 0 {
		if err := tx.Model(&depo).Updates(updates).Error; err != nil {
			tx.Rollback()
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update depot"})
		}
	}

	if ceilingChanged {
		// The seed value changed, so the whole chain replays from the sentinel.
		err := tx.Model(&Models.PoolEntry{}).
			Where("depo_id = ? AND trip_id IS NULL AND payment_id IS NULL AND recovery_id IS NULL", depo.ID).
			Updates(map[string]interface{}{"credit": input.Balance, "depo_limit": input.Balance}).Error
		if err != nil {
			tx.Rollback()
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update depot ceiling", "message": err.Error()})
		}
		if err := Models.RecalculatePool(tx, depo.ID, 0); err != nil {
			tx.Rollback()
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to recompute depot pool", "message": err.Error()})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to commit transaction", "message": err.Error()})
	}

	c.DB.First(&depo, id)
	return ctx.JSON(depo)
}

// DeleteDepo soft deletes a depot with no active trip references
func (c *DepoController) DeleteDepo(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid depot ID"})
	}

	var depo Models.Depo
	if result := c.DB.First(&depo, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
	}

	count, err := Models.ActiveTripDepoCount(c.DB, depo.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check trip references", "message": err.Error()})
	}
	if count > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "The depot still has active trips"})
	}

	c.DB.Delete(&depo)
	return ctx.JSON(fiber.Map{"message": "Depot deleted successfully"})
}

// GetDepoPool lists the depot's pool ledger rows in replay order
func (c *DepoController) GetDepoPool(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid depot ID"})
	}

	var depo Models.Depo
	if result := c.DB.First(&depo, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
	}

	var entries []Models.PoolEntry
	if err := c.DB.Where("depo_id = ?", id).Order("id ASC").Find(&entries).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve pool entries"})
	}
	return ctx.JSON(entries)
}

// GetDepoBalance reports ceiling, used and available amounts for dashboards
func (c *DepoController) GetDepoBalance(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid depot ID"})
	}

	var depo Models.Depo
	if result := c.DB.First(&depo, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Depot not found"})
	}

	ceiling, err := Models.PoolCeiling(c.DB, depo.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read ceiling", "message": err.Error()})
	}
	available, err := Models.PoolAvailable(c.DB, depo.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute available credit", "message": err.Error()})
	}
	used, err := Models.PoolUsed(c.DB, depo.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute used credit", "message": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"depo_id":   depo.ID,
		"name":      depo.Name,
		"ceiling":   ceiling,
		"used":      used,
		"available": available,
	})
}
