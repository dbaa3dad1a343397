package Controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"FuelDesk/Models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&Models.User{}, &Models.Depo{}, &Models.Customer{}, &Models.Vehicle{},
		&Models.BankAccount{}, &Models.CashEntry{}, &Models.PoolEntry{},
		&Models.Transaction{}, &Models.Trip{}, &Models.TripProduct{},
		&Models.TripDepo{}, &Models.Sale{}, &Models.Payment{},
		&Models.Recovery{}, &Models.ApiLog{},
	)
	require.NoError(t, err)
	return db
}

// newTestApp registers every handler without auth middleware.
func newTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()

	tripHandler := NewTripHandler(db)
	saleHandler := NewSaleHandler(db)
	paymentHandler := NewPaymentHandler(db)
	cashController := NewCashController(db)
	depoController := NewDepoController(db)

	app.Post("/api/trips", tripHandler.CreateTrip)
	app.Get("/api/trips", tripHandler.GetTrips)
	app.Get("/api/trips/:id", tripHandler.GetTrip)
	app.Delete("/api/trips/:id", tripHandler.DeleteTrip)
	app.Post("/api/sales", saleHandler.RecordSale)
	app.Delete("/api/sales/:id", saleHandler.DeleteSale)
	app.Post("/api/payments", paymentHandler.CreatePayment)
	app.Post("/api/recoveries", paymentHandler.CreateRecovery)
	app.Post("/api/cash", cashController.CreateCashEntry)
	app.Get("/api/depos/:id/balance", depoController.GetDepoBalance)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func seedTestDepo(t *testing.T, db *gorm.DB, name, ceiling string) *Models.Depo {
	t.Helper()
	depo := Models.Depo{Name: name, Balance: mustDecimal(t, ceiling)}
	require.NoError(t, db.Create(&depo).Error)
	_, err := Models.SeedPool(db, depo.ID, mustDecimal(t, ceiling))
	require.NoError(t, err)
	return &depo
}

func seedTestVehicle(t *testing.T, db *gorm.DB, plate string) *Models.Vehicle {
	t.Helper()
	vehicle := Models.Vehicle{NoPlate: plate, TankCapacity: 20000}
	require.NoError(t, db.Create(&vehicle).Error)
	return &vehicle
}

func seedTestCustomer(t *testing.T, db *gorm.DB, name string) *Models.Customer {
	t.Helper()
	customer := Models.Customer{Name: name}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}
