package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReservationsXLSX(t *testing.T) {
	begin := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	rows := []ReservationRow{
		{
			ID: 3, Unit: "Main library", Resource: "Meeting room",
			Begin: begin, End: begin.Add(time.Hour),
			State: "confirmed", UserEmail: "owner@example.org",
			ReserverName: "A. Person", EventDesc: "weekly sync",
			Participants: "4", Comments: "approved by phone",
		},
		{
			ID: 4, Unit: "Main library", Resource: "Studio",
			Begin: begin.Add(2 * time.Hour), End: begin.Add(3 * time.Hour),
			State: "requested",
		},
	}

	blob, err := ReservationsXLSX(rows)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Reservations"}, f.GetSheetList())

	got, err := f.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, headers, got[0])
	assert.Equal(t, "3", got[1][0])
	assert.Equal(t, "Meeting room", got[1][2])
	assert.Equal(t, "2026-09-01T10:00:00Z", got[1][3])
	assert.Equal(t, "confirmed", got[1][5])
	assert.Equal(t, "owner@example.org", got[1][6])
	assert.Equal(t, "approved by phone", got[1][10])

	// Redacted row renders blank cells for user and comments.
	assert.Equal(t, "4", got[2][0])
	assert.Equal(t, "requested", got[2][5])
	if len(got[2]) > 6 {
		assert.Equal(t, "", got[2][6])
	}
}

func TestReservationsXLSXEmpty(t *testing.T) {
	blob, err := ReservationsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, got, 1, "header only")
	assert.Equal(t, headers, got[0])
}
