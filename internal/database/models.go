package database

import (
	"time"
)

// ForcingTable holds one row per reanalysis grid cell and record.
const ForcingTable = "era5_forcing"

// ForcingRecord is a single reanalysis cell value. Kind is "hourly" or
// "daily"; daily records carry midnight UTC of their day in Time.
type ForcingRecord struct {
	Kind      string    `gorm:"column:kind;primaryKey;type:text"`
	Time      time.Time `gorm:"column:ts;primaryKey"`
	Latitude  float64   `gorm:"column:latitude;primaryKey"`
	Longitude float64   `gorm:"column:longitude;primaryKey"`
	Shortwave float64   `gorm:"column:shortwave"`
	Longwave  float64   `gorm:"column:longwave"`
}

// TableName specifies the table name for ForcingRecord
func (ForcingRecord) TableName() string {
	return ForcingTable
}
