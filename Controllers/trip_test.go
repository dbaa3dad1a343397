package Controllers

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuelDesk/Models"
)

func TestCreateTripCredit(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-001",
		"date":       "2026-01-10",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "diesel",
				"quantity_ltr":  100,
				"invoice_rate":  5,
				"purchase_type": "credit",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var trip Models.Trip
	require.NoError(t, db.Preload("TripProducts").Preload("TripDepos").
		Where("trip_no = ?", "TRIP-001").First(&trip).Error)
	assert.Equal(t, Models.TripStatusPending, trip.Status)
	assert.True(t, trip.TotalAmount.Equal(mustDecimal(t, "500")))
	assert.True(t, trip.Paid.IsZero())

	require.Len(t, trip.TripDepos, 1)
	assert.Equal(t, "credit", trip.TripDepos[0].PurchaseType)
	assert.True(t, trip.TripDepos[0].PayableAmount.Equal(mustDecimal(t, "500")))
	assert.True(t, trip.TripDepos[0].PaidAmount.IsZero())

	available, err := Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(mustDecimal(t, "500")))

	var draw Models.PoolEntry
	require.NoError(t, db.Where("depo_id = ? AND trip_id = ?", depo.ID, trip.ID).First(&draw).Error)
	assert.True(t, draw.Debit.Equal(mustDecimal(t, "500")))
	assert.Nil(t, draw.PaymentID)
}

func TestCreateTripCreditExceeded(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-001",
		"date":       "2026-01-10",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "diesel",
				"quantity_ltr":  300,
				"invoice_rate":  5,
				"purchase_type": "credit",
			},
		},
	})
	require.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Credit limit exceeded", body["error"])

	// Nothing committed.
	var tripCount int64
	db.Model(&Models.Trip{}).Count(&tripCount)
	assert.Zero(t, tripCount)
	available, err := Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(mustDecimal(t, "1000")))
}

func TestCreateTripCash(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "2000"), "opening cash", time.Time{})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-002",
		"date":       "2026-01-11",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "petrol",
				"quantity_ltr":  100,
				"invoice_rate":  5,
				"purchase_type": "cash",
				"method":        "cash_in_hand",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var trip Models.Trip
	require.NoError(t, db.Where("trip_no = ?", "TRIP-002").First(&trip).Error)
	assert.True(t, trip.Paid.Equal(mustDecimal(t, "500")))

	balance, err := Models.CashBalance(db)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "1500")))

	var audit Models.Transaction
	require.NoError(t, db.Where("trip_id = ?", trip.ID).First(&audit).Error)
	assert.NotNil(t, audit.CashInHandID)
	assert.True(t, audit.Debit.Equal(mustDecimal(t, "500")))

	// Cash purchases never touch the pool.
	available, err := Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(mustDecimal(t, "1000")))
}

func TestCreateTripAdvance(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "2000"), "opening cash", time.Time{})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-003",
		"date":       "2026-01-12",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "diesel",
				"quantity_ltr":  100,
				"invoice_rate":  5,
				"purchase_type": "advance",
				"paid_amount":   200,
				"method":        "cash_in_hand",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	// 200 paid up front, 300 outstanding drawn from the pool.
	var trip Models.Trip
	require.NoError(t, db.Where("trip_no = ?", "TRIP-003").First(&trip).Error)
	assert.True(t, trip.Paid.Equal(mustDecimal(t, "200")))

	available, err := Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(mustDecimal(t, "700")))

	balance, err := Models.CashBalance(db)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "1800")))
}

func TestCreateTripValidation(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")

	base := func(product map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{
			"trip_no":    "TRIP-BAD",
			"date":       "2026-01-10",
			"vehicle_id": vehicle.ID,
			"products":   []map[string]interface{}{product},
		}
	}

	cases := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"no products", map[string]interface{}{
			"trip_no": "TRIP-BAD", "date": "2026-01-10", "vehicle_id": vehicle.ID,
			"products": []map[string]interface{}{},
		}},
		{"unknown purchase type", base(map[string]interface{}{
			"depo_id": depo.ID, "product_type": "diesel", "quantity_ltr": 100,
			"invoice_rate": 5, "purchase_type": "cheque",
		})},
		{"container product without breakdown", base(map[string]interface{}{
			"depo_id": depo.ID, "product_type": "cylinder", "quantity_ltr": 100,
			"invoice_rate": 5, "purchase_type": "credit",
		})},
		{"advance without prepayment", base(map[string]interface{}{
			"depo_id": depo.ID, "product_type": "diesel", "quantity_ltr": 100,
			"invoice_rate": 5, "purchase_type": "advance", "method": "cash_in_hand",
		})},
		{"cash without method", base(map[string]interface{}{
			"depo_id": depo.ID, "product_type": "diesel", "quantity_ltr": 100,
			"invoice_rate": 5, "purchase_type": "cash",
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, "POST", "/api/trips", tc.payload)
			assert.Equal(t, 400, resp.StatusCode)
		})
	}

	var tripCount int64
	db.Model(&Models.Trip{}).Count(&tripCount)
	assert.Zero(t, tripCount)
}

func TestDeleteTripRestoresPool(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-001",
		"date":       "2026-01-10",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "diesel",
				"quantity_ltr":  100,
				"invoice_rate":  5,
				"purchase_type": "credit",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var trip Models.Trip
	require.NoError(t, db.Where("trip_no = ?", "TRIP-001").First(&trip).Error)

	available, err := Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	require.True(t, available.Equal(mustDecimal(t, "500")))

	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/trips/%d", trip.ID), nil)
	require.Equal(t, 200, resp.StatusCode)

	available, err = Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(mustDecimal(t, "1000")))

	// Trip, its lines and its pool draw are all soft-deleted.
	assert.ErrorContains(t, db.Where("trip_no = ?", "TRIP-001").First(&Models.Trip{}).Error, "record not found")
	var productCount, depoLineCount, drawCount int64
	db.Model(&Models.TripProduct{}).Where("trip_id = ?", trip.ID).Count(&productCount)
	db.Model(&Models.TripDepo{}).Where("trip_id = ?", trip.ID).Count(&depoLineCount)
	db.Model(&Models.PoolEntry{}).Where("trip_id = ?", trip.ID).Count(&drawCount)
	assert.Zero(t, productCount)
	assert.Zero(t, depoLineCount)
	assert.Zero(t, drawCount)

	var cancelled Models.Trip
	require.NoError(t, db.Unscoped().First(&cancelled, trip.ID).Error)
	assert.Equal(t, Models.TripStatusCancelled, cancelled.Status)
}

func TestDeleteTripReversesCash(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "2000"), "opening cash", time.Time{})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-002",
		"date":       "2026-01-11",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "petrol",
				"quantity_ltr":  100,
				"invoice_rate":  5,
				"purchase_type": "cash",
				"method":        "cash_in_hand",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	balance, err := Models.CashBalance(db)
	require.NoError(t, err)
	require.True(t, balance.Equal(mustDecimal(t, "1500")))

	var trip Models.Trip
	require.NoError(t, db.Where("trip_no = ?", "TRIP-002").First(&trip).Error)
	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/trips/%d", trip.ID), nil)
	require.Equal(t, 200, resp.StatusCode)

	balance, err = Models.CashBalance(db)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "2000")))

	var txCount int64
	db.Model(&Models.Transaction{}).Where("trip_id = ?", trip.ID).Count(&txCount)
	assert.Zero(t, txCount)
}

func TestDeleteTripWithPaymentDecrementsBalance(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	depo := seedTestDepo(t, db, "Alpha Depot", "1000")
	vehicle := seedTestVehicle(t, db, "TKR-001")
	_, err := Models.RecordCashEntry(db, decimal.Zero, mustDecimal(t, "2000"), "opening cash", time.Time{})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "POST", "/api/trips", map[string]interface{}{
		"trip_no":    "TRIP-003",
		"date":       "2026-01-12",
		"vehicle_id": vehicle.ID,
		"products": []map[string]interface{}{
			{
				"depo_id":       depo.ID,
				"product_type":  "diesel",
				"quantity_ltr":  100,
				"invoice_rate":  5,
				"purchase_type": "credit",
			},
		},
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	var trip Models.Trip
	require.NoError(t, db.Where("trip_no = ?", "TRIP-003").First(&trip).Error)

	// Pay the trip off: pool restored, cash debited.
	resp, body = doJSON(t, app, "POST", "/api/payments", map[string]interface{}{
		"depo_id": depo.ID,
		"trip_id": trip.ID,
		"amount":  500,
		"method":  "cash_in_hand",
	})
	require.Equal(t, 201, resp.StatusCode, "body: %v", body)

	available, err := Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	require.True(t, available.Equal(mustDecimal(t, "1000")))

	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/trips/%d", trip.ID), nil)
	require.Equal(t, 200, resp.StatusCode)

	// Draw and restore both reversed; cash back where it started.
	available, err = Models.PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(mustDecimal(t, "1000")))

	balance, err := Models.CashBalance(db)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "2000")))

	var paymentCount int64
	db.Model(&Models.Payment{}).Where("trip_id = ?", trip.ID).Count(&paymentCount)
	assert.Zero(t, paymentCount)
}
