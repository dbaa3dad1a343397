package Models

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file, using environment as-is")
	}
	LoadSettings()

	var err error
	switch os.Getenv("DB_DRIVER") {
	case "mysql":
		// DSN needs parseTime=true for time.Time columns
		DB, err = gorm.Open(mysql.Open(os.Getenv("DB_DSN")), &gorm.Config{})
	case "postgres":
		DB, err = gorm.Open(postgres.Open(os.Getenv("DB_DSN")), &gorm.Config{})
	default:
		file := os.Getenv("DB_FILE")
		if file == "" {
			file = "database.db"
		}
		DB, err = gorm.Open(sqlite.Open(file), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// 1. Base entities with no dependencies
	DB.AutoMigrate(
		&User{},
		&ApiLog{},
		&Vehicle{},
		&Customer{},
		&Depo{},
		&BankAccount{},
	)

	// 2. Ledger tables
	DB.AutoMigrate(
		&CashEntry{},
		&PoolEntry{},
		&Transaction{},
	)

	// 3. Trip workflow tables, depend on Depo/Vehicle/Customer
	DB.AutoMigrate(
		&Trip{},
		&TripProduct{},
		&TripDepo{},
		&Sale{},
		&Payment{},
		&Recovery{},
	)

	if err := EnsurePoolSentinels(DB); err != nil {
		log.Printf("pool sentinel backfill: %v", err)
	}
}

// EnsurePoolSentinels seeds the initial-balance pool row for any depot that
// predates the pool ledger. The sentinel carries the depot's credit ceiling
// and every recompute replays from it, so a depot without one has no usable
// pool history.
func EnsurePoolSentinels(db *gorm.DB) error {
	var depos []Depo
	if err := db.Find(&depos).Error; err != nil {
		return err
	}
	for _, depo := range depos {
		var count int64
		err := db.Model(&PoolEntry{}).
			Where("depo_id = ? AND trip_id IS NULL AND payment_id IS NULL AND recovery_id IS NULL", depo.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			if _, err := SeedPool(db, depo.ID, depo.Balance); err != nil {
				return err
			}
			log.Printf("seeded pool sentinel for depot %q with ceiling %s", depo.Name, depo.Balance.StringFixed(2))
		}
	}
	return nil
}
