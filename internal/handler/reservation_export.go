package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/export"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// renderReservationsXLSX writes the details as an xlsx attachment. The
// same redaction rules as the JSON representation apply per row, so a
// non-administrator downloading the listing sees blank cells where the
// API would omit the field.
func (h *ReservationHandler) renderReservationsXLSX(c echo.Context, details []repository.ReservationDetail, a model.Actor, filename string) error {
	rows := make([]export.ReservationRow, 0, len(details))
	for i := range details {
		d := &details[i]
		row := export.ReservationRow{
			ID:       d.ID,
			Unit:     d.UnitName,
			Resource: d.ResourceName,
			Begin:    d.Begin,
			End:      d.End,
			State:    d.State,
		}
		res := model.Resource{ID: d.ResourceID, UnitID: d.UnitID}
		if res.IsAdmin(a) {
			row.UserEmail = d.UserEmail
			if d.Comments != nil {
				row.Comments = *d.Comments
			}
		}
		if d.AreExtraFieldsVisible(&res, a) {
			if d.ReserverName != nil {
				row.ReserverName = *d.ReserverName
			}
			if d.EventDescription != nil {
				row.EventDesc = *d.EventDescription
			}
			if d.NumberOfParticipants != nil {
				row.Participants = strconv.Itoa(*d.NumberOfParticipants)
			}
		}
		rows = append(rows, row)
	}

	blob, err := export.ReservationsXLSX(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate spreadsheet"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=`+filename)
	return c.Blob(http.StatusOK, export.ContentTypeXLSX, blob)
}
