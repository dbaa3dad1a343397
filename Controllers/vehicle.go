package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// VehicleHandler contains handler methods for vehicle routes
type VehicleHandler struct {
	DB *gorm.DB
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(db *gorm.DB) *VehicleHandler {
	return &VehicleHandler{DB: db}
}

// VehicleInput is the vehicle create/update payload
type VehicleInput struct {
	NoPlate      string `json:"no_plate" validate:"required"`
	TankCapacity int    `json:"tank_capacity"`
	Transporter  string `json:"transporter"`
}

// GetVehicles retrieves all vehicles
// GET /api/vehicles
func (h *VehicleHandler) GetVehicles(c *fiber.Ctx) error {
	var vehicles []Models.Vehicle
	if err := h.DB.Order("no_plate ASC").Find(&vehicles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve vehicles"})
	}
	return c.JSON(vehicles)
}

// GetVehicle retrieves a single vehicle
// GET /api/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}
	var vehicle Models.Vehicle
	if err := h.DB.First(&vehicle, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error", "message": err.Error()})
	}
	return c.JSON(vehicle)
}

// CreateVehicle creates a vehicle
// POST /api/vehicles
func (h *VehicleHandler) CreateVehicle(c *fiber.Ctx) error {
	var input VehicleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}

	vehicle := Models.Vehicle{
		NoPlate:      input.NoPlate,
		TankCapacity: input.TankCapacity,
		Transporter:  input.Transporter,
	}
	if err := h.DB.Create(&vehicle).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A vehicle with this plate already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create vehicle", "message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Vehicle created successfully",
		"data":    vehicle,
	})
}

// UpdateVehicle updates a vehicle
// PATCH /api/vehicles/:id
func (h *VehicleHandler) UpdateVehicle(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}
	var vehicle Models.Vehicle
	if err := h.DB.First(&vehicle, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	var input VehicleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.NoPlate != "" {
		vehicle.NoPlate = input.NoPlate
	}
	if input.TankCapacity > 0 {
		vehicle.TankCapacity = input.TankCapacity
	}
	if input.Transporter != "" {
		vehicle.Transporter = input.Transporter
	}
	if err := h.DB.Save(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update vehicle", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Vehicle updated successfully", "data": vehicle})
}

// DeleteVehicle removes a vehicle with no trip history
// DELETE /api/vehicles/:id
func (h *VehicleHandler) DeleteVehicle(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vehicle ID"})
	}
	var vehicle Models.Vehicle
	if err := h.DB.First(&vehicle, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	var refs int64
	h.DB.Model(&Models.Trip{}).Where("vehicle_id = ?", vehicle.ID).Count(&refs)
	if refs > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Vehicle has trip history and cannot be deleted"})
	}

	if err := h.DB.Delete(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete vehicle", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Vehicle deleted successfully"})
}
