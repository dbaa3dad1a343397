package Models

import (
	"gorm.io/gorm"
)

// User carries an integer permission level: 1 read, 3 ledger writes, 4 admin.
type User struct {
	gorm.Model
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"not null;uniqueIndex"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission"`
}
