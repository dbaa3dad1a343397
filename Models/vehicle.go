package Models

import (
	"gorm.io/gorm"
)

// Vehicle is reference data for trips.
type Vehicle struct {
	gorm.Model
	NoPlate      string `json:"no_plate" gorm:"not null;uniqueIndex"`
	TankCapacity int    `json:"tank_capacity"`
	Transporter  string `json:"transporter"`
}
