package Controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// ReportHandler contains handler methods for Excel export routes
type ReportHandler struct {
	DB *gorm.DB
}

// NewReportHandler creates a new report handler
func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{DB: db}
}

// ExportTrips streams an Excel workbook of trips with one row per payment
// line, filtered by the same query parameters as the trip listing.
// GET /api/reports/trips
func (h *ReportHandler) ExportTrips(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Trip{}).Preload("TripProducts").Preload("TripDepos")
	if startDate := c.Query("start_date"); startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		query = query.Where("date <= ?", endDate)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var trips []Models.Trip
	if err := query.Order("date ASC, id ASC").Find(&trips).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trips"})
	}

	depoNames, err := h.depoNames()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve depots"})
	}

	f := excelize.NewFile()
	sheetName := "Trips"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report", "message": err.Error()})
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Trip No", "Date", "Vehicle", "Status", "Depot", "Product",
		"Quantity (L)", "Sold (L)", "Rate", "Discount", "Purchase Type",
		"Payable", "Paid", "Outstanding",
	}
	writeHeaderRow(f, sheetName, headers)

	row := 2
	for _, trip := range trips {
		depoByProduct := make(map[uint]Models.TripDepo, len(trip.TripDepos))
		for _, td := range trip.TripDepos {
			depoByProduct[td.ProductID] = td
		}
		for _, p := range trip.TripProducts {
			td := depoByProduct[p.ID]
			values := []interface{}{
				trip.TripNo,
				trip.Date,
				trip.VehicleNoPlate,
				trip.Status,
				depoNames[p.DepoID],
				p.ProductType,
				toFloat(p.QuantityLtr),
				toFloat(p.QtySold),
				toFloat(p.InvoiceRate),
				toFloat(p.Discount),
				td.PurchaseType,
				toFloat(td.PayableAmount),
				toFloat(td.PaidAmount),
				toFloat(td.PayableAmount.Sub(td.PaidAmount)),
			}
			writeRow(f, sheetName, row, values)
			row++
		}
	}

	for i := range headers {
		col := string('A' + rune(i))
		f.SetColWidth(sheetName, col, col, 15)
	}
	if f.GetSheetName(0) != sheetName {
		f.DeleteSheet("Sheet1")
	}

	return sendWorkbook(c, f, fmt.Sprintf("trips_%s.xlsx", time.Now().Format("2006-01-02")))
}

// ExportSales streams an Excel workbook of fuel sales
// GET /api/reports/sales
func (h *ReportHandler) ExportSales(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Sale{})
	if startDate := c.Query("start_date"); startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		query = query.Where("date <= ?", endDate)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var sales []Models.Sale
	if err := query.Order("date ASC, id ASC").Find(&sales).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve sales"})
	}

	customerNames := make(map[uint]string)
	var customers []Models.Customer
	if err := h.DB.Find(&customers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customers"})
	}
	for _, cu := range customers {
		customerNames[cu.ID] = cu.Name
	}

	tripNos := make(map[uint]string)
	var trips []Models.Trip
	if err := h.DB.Unscoped().Find(&trips).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve trips"})
	}
	for _, t := range trips {
		tripNos[t.ID] = t.TripNo
	}

	f := excelize.NewFile()
	sheetName := "Sales"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report", "message": err.Error()})
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Date", "Trip No", "Customer", "Volume (L)", "Rate", "Discount", "Total",
	}
	writeHeaderRow(f, sheetName, headers)

	grandTotal := decimal.Zero
	for i, s := range sales {
		values := []interface{}{
			s.Date,
			tripNos[s.TripID],
			customerNames[s.CustomerID],
			toFloat(s.Fuel),
			toFloat(s.Rate),
			toFloat(s.Discount),
			toFloat(s.TotalAmount),
		}
		writeRow(f, sheetName, i+2, values)
		grandTotal = grandTotal.Add(s.TotalAmount)
	}

	totalRow := len(sales) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), "Grand Total")
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", totalRow), toFloat(grandTotal))

	for i := range headers {
		col := string('A' + rune(i))
		f.SetColWidth(sheetName, col, col, 15)
	}
	if f.GetSheetName(0) != sheetName {
		f.DeleteSheet("Sheet1")
	}

	return sendWorkbook(c, f, fmt.Sprintf("sales_%s.xlsx", time.Now().Format("2006-01-02")))
}

func (h *ReportHandler) depoNames() (map[uint]string, error) {
	var depos []Models.Depo
	if err := h.DB.Unscoped().Find(&depos).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(depos))
	for _, d := range depos {
		names[d.ID] = d.Name
	}
	return names, nil
}

func writeHeaderRow(f *excelize.File, sheetName string, headers []string) {
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}
}

func writeRow(f *excelize.File, sheetName string, row int, values []interface{}) {
	for colIndex, value := range values {
		cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
		f.SetCellValue(sheetName, cell, value)
	}
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func sendWorkbook(c *fiber.Ctx, f *excelize.File, filename string) error {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write report", "message": err.Error()})
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(buf.Bytes())
}
