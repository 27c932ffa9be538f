package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrStatusChanged means the appointment left the expected status before the update landed.
	ErrStatusChanged = errors.New("appointment status changed concurrently")

	// ErrSlotTaken is returned by the store when another active appointment
	// already holds the consultant's slot.
	ErrSlotTaken = errors.New("slot already booked")
)
