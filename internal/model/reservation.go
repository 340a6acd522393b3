package model

import "time"

// Date and time layouts used by the booking form (DD-MM-YYYY, HH:MM).
const (
	DateLayout = "02-01-2006"
	TimeLayout = "15:04"
)

// FieldState is the transient query of a booking session.
type FieldState struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	People int    `json:"people"`
}

// Complete reports whether date, time and people are all set.
func (f FieldState) Complete() bool {
	return f.Date != "" && f.Time != "" && f.People > 0
}

// Reservation is a booking of one or more seats of a venue layout for a
// date and time.
//
// Fields:
//  ID        – reservation identifier (uuid).
//  VenueID   – owner of the layout the seats belong to.
//  CreatedBy – authenticated user that submitted the reservation.
//  Date/Time – slot in DateLayout / TimeLayout form.
//  People    – party size.
//  SeatIDs   – reserved seat identifiers.
type Reservation struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	CreatedBy string    `json:"created_by"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	People    int       `json:"people"`
	SeatIDs   []string  `json:"seat_ids"`
	CreatedAt time.Time `json:"created_at"`
}
