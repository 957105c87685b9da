package model

import "time"

// Unit groups resources that share a location and a staff, for example a
// library building or an office floor. Unit staff administer every
// resource belonging to the unit.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – display name of the unit.
//	TimeZone  – IANA time zone name used when presenting times.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Unit struct {
	ID        uint64
	Name      string
	TimeZone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
