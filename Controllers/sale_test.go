package Controllers

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"FuelDesk/Models"
)

// createPaidTrip creates a fully-paid cash trip of 1000 L so that only the
// resale condition gates auto-close.
func createPaidTrip(t *testing.T, db *gorm.DB, tripNo string, depoID, vehicleID uint) *Models.Trip {
	t.Helper()
	app := newTestApp(db)

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    tripNo,
		"date":       "2026-01-10",
		"vehicle_id": vehicleID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depoID,
				"product_type":  "diesel",
				"quantity_ltr":  1000,
				"invoice_rate":  5,
				"purchase_type": "cash",
				"method":        "cash_in_hand",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var trip Models.Trip
	require.NoError(t, db.Preload("TripProducts").Where("trip_no = ?", tripNo).First(&trip).Error)
	require.Len(t, trip.TripProducts, 1)
	return &trip
}

func TestRecordSaleAndAutoClose(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "10000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	customer := seedTestCustomer(t, db, "Highway Filling Station")
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "10000"), "opening cash", time.Time{})
	require.NoError(t, err)

	trip := createPaidTrip(t, db, "TRIP-001", depo.ID, vehicle.ID)
	productID := trip.TripProducts[0].ID

	t.Run("sale below full volume keeps the trip open", func(t *testing.T) {
		resp, body := doJSON(t, app, "POST", "/api/sales", map[string]interface{}{
			"trip_product_id": productID,
			"customer_id":     customer.ID,
			"fuel":            999,
			"rate":            6,
		})
		require.Equal(t, 201, resp.StatusCode, "body: %v", body)

		var reloaded Models.Trip
		require.NoError(t, db.First(&reloaded, trip.ID).Error)
		assert.Equal(t, Models.TripStatusInProgress, reloaded.Status)
		assert.Nil(t, reloaded.CompletedAt)

		var product Models.TripProduct
		require.NoError(t, db.First(&product, productID).Error)
		assert.True(t, product.QtySold.Equal(mustDecimal(t, "999")))
	})

	t.Run("oversell rejected", func(t *testing.T) {
		resp, body := doJSON(t, app, "POST", "/api/sales", map[string]interface{}{
			"trip_product_id": productID,
			"customer_id":     customer.ID,
			"fuel":            2,
			"rate":            6,
		})
		require.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, "Quantity exceeded", body["error"])
	})

	t.Run("final litre completes the trip", func(t *testing.T) {
		resp, body := doJSON(t, app, "POST", "/api/sales", map[string]interface{}{
			"trip_product_id": productID,
			"customer_id":     customer.ID,
			"fuel":            1,
			"rate":            6,
		})
		require.Equal(t, 201, resp.StatusCode, "body: %v", body)

		var reloaded Models.Trip
		require.NoError(t, db.First(&reloaded, trip.ID).Error)
		assert.Equal(t, Models.TripStatusCompleted, reloaded.Status)
		assert.NotNil(t, reloaded.CompletedAt)
	})

	t.Run("no sales on a completed trip", func(t *testing.T) {
		resp, _ := doJSON(t, app, "POST", "/api/sales", map[string]interface{}{
			"trip_product_id": productID,
			"customer_id":     customer.ID,
			"fuel":            1,
			"rate":            6,
		})
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestAutoCloseWaitsForFullPayment(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "10000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	customer := seedTestCustomer(t, db, "Highway Filling Station")

	// Credit trip: nothing paid at creation.
	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-CREDIT",
		"date":       "2026-01-10",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "diesel",
				"quantity_ltr":  1000,
				"invoice_rate":  5,
				"purchase_type": "credit",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var trip Models.Trip
	require.NoError(t, db.Preload("TripProducts").Where("trip_no = ?", "TRIP-CREDIT").First(&trip).Error)

	// All volume resold, but the credit line is unpaid.
	resp, body = doJSON(t, app, "POST", "/api/sales", map[string]interface{}{
		"trip_product_id": trip.TripProducts[0].ID,
		"customer_id":     customer.ID,
		"fuel":            1000,
		"rate":            6,
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var reloaded Models.Trip
	require.NoError(t, db.First(&reloaded, trip.ID).Error)
	assert.Equal(t, Models.TripStatusInProgress, reloaded.Status)

	// Settling the line in full fires auto-close from the payment path.
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "10000"), "opening cash", time.Time{})
	require.NoError(t, err)
	resp, body = doJSON(t, app, "POST", "/api/payments", map[string]interface{}{
		"depo_id": depo.ID,
		"trip_id": trip.ID,
		"amount":  5000,
		"method":  "cash_in_hand",
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	require.NoError(t, db.First(&reloaded, trip.ID).Error)
	assert.Equal(t, Models.TripStatusCompleted, reloaded.Status)
	assert.True(t, reloaded.Paid.Equal(mustDecimal(t, "5000")))

	var line Models.TripDepo
	require.NoError(t, db.Where("trip_id = ?", trip.ID).First(&line).Error)
	assert.True(t, line.PaidAmount.Equal(line.PayableAmount))
}

func TestDeleteSale(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "10000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	customer := seedTestCustomer(t, db, "Highway Filling Station")
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "10000"), "opening cash", time.Time{})
	require.NoError(t, err)

	trip := createPaidTrip(t, db, "TRIP-001", depo.ID, vehicle.ID)
	productID := trip.TripProducts[0].ID

	resp, body := doJSON(t, app, "POST", "/api/sales", map[string]interface{}{
		"trip_product_id": productID,
		"customer_id":     customer.ID,
		"fuel":            400,
		"rate":            6,
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var sale Models.Sale
	require.NoError(t, db.Where("trip_product_id = ?", productID).First(&sale).Error)

	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/sales/%d", sale.ID), nil)
	require.Equal(t, 200, resp.StatusCode)

	var product Models.TripProduct
	require.NoError(t, db.First(&product, productID).Error)
	assert.True(t, product.QtySold.IsZero())

	var saleCount int64
	db.Model(&Models.Sale{}).Where("trip_product_id = ?", productID).Count(&saleCount)
	assert.Zero(t, saleCount)
}
