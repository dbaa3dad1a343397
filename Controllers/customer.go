package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// CustomerHandler contains handler methods for customer routes
type CustomerHandler struct {
	DB *gorm.DB
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{DB: db}
}

// CustomerInput is the customer create/update payload
type CustomerInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// GetCustomers retrieves all customers
// GET /api/customers
func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	var customers []Models.Customer
	if err := h.DB.Order("name ASC").Find(&customers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customers"})
	}
	return c.JSON(customers)
}

// GetCustomer retrieves a single customer
// GET /api/customers/:id
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	var customer Models.Customer
	if err := h.DB.First(&customer, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error", "message": err.Error()})
	}
	return c.JSON(customer)
}

// CreateCustomer creates a customer
// POST /api/customers
func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var input CustomerInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}

	customer := Models.Customer{
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := h.DB.Create(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create customer", "message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Customer created successfully",
		"data":    customer,
	})
}

// UpdateCustomer updates a customer
// PATCH /api/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	var customer Models.Customer
	if err := h.DB.First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var input CustomerInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Name != "" {
		customer.Name = input.Name
	}
	if input.Phone != "" {
		customer.Phone = input.Phone
	}
	if input.Address != "" {
		customer.Address = input.Address
	}
	if err := h.DB.Save(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update customer", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Customer updated successfully", "data": customer})
}

// DeleteCustomer removes a customer with no sales or recovery history
// DELETE /api/customers/:id
func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	var customer Models.Customer
	if err := h.DB.First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var saleRefs, recoveryRefs int64
	h.DB.Model(&Models.Sale{}).Where("customer_id = ?", customer.ID).Count(&saleRefs)
	h.DB.Model(&Models.Recovery{}).Where("customer_id = ?", customer.ID).Count(&recoveryRefs)
	if saleRefs > 0 || recoveryRefs > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Customer has sales or recovery history and cannot be deleted"})
	}

	if err := h.DB.Delete(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete customer", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Customer deleted successfully"})
}

// GetCustomerStatement summarizes a customer's position: total sold to them,
// total recovered from them, and the outstanding difference.
// GET /api/customers/:id/statement
func (h *CustomerHandler) GetCustomerStatement(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	var customer Models.Customer
	if err := h.DB.First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var sales []Models.Sale
	if err := h.DB.Where("customer_id = ?", customer.ID).Order("date ASC, id ASC").Find(&sales).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve sales"})
	}
	var recoveries []Models.Recovery
	if err := h.DB.Where("customer_id = ?", customer.ID).Order("date ASC, id ASC").Find(&recoveries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve recoveries"})
	}

	totalSold := decimal.Zero
	for _, s := range sales {
		totalSold = totalSold.Add(s.TotalAmount)
	}
	totalRecovered := decimal.Zero
	for _, r := range recoveries {
		totalRecovered = totalRecovered.Add(r.Amount)
	}

	return c.JSON(fiber.Map{
		"customer":        customer,
		"sales":           sales,
		"recoveries":      recoveries,
		"total_sold":      totalSold,
		"total_recovered": totalRecovered,
		"outstanding":     totalSold.Sub(totalRecovered),
	})
}
