package domain

import "time"

// DriverStatus represents a driver's availability.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "OFFLINE"
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusEnRoute   DriverStatus = "EN_ROUTE"
	DriverStatusBusy      DriverStatus = "BUSY"
)

// Driver represents a pickup-and-delivery driver. The engine treats drivers
// as claimable resources; profile data is owned by the driver subsystem.
type Driver struct {
	ID           string
	Name         string
	Phone        string
	VehicleInfo  string
	Status       DriverStatus
	LastActiveAt time.Time
}
