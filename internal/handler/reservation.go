package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/config"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// ListReservations handles GET /v1/reservations. Visibility depends on
// the viewer: staff see everything, authenticated users additionally see
// their own rows regardless of state, anonymous viewers only rows in
// the requested or confirmed states. Supported filters are user, is_own,
// resource and all; format=xlsx renders the same filtered listing as a
// spreadsheet attachment.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	actor, err := h.getActor(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}

	q := repository.ListQuery{
		ViewerIsStaff: actor.IsStaff(),
		Now:           time.Now().UTC(),
	}
	if actor.Authenticated() {
		q.ViewerID = actor.User.ID
	}

	ctx := c.Request().Context()
	if raw := c.QueryParam("user"); raw != "" {
		target, err := h.lookupFilterUser(ctx, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid value in filter user"})
		}
		q.FilterUserID = target
	}
	if raw := c.QueryParam("is_own"); raw != "" && actor.Authenticated() {
		own, err := parseBoolToken(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid value in filter is_own"})
		}
		q.IsOwn = &own
	}
	if raw := c.QueryParam("resource"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid value in filter resource"})
		}
		q.ResourceID = &id
	}
	if raw := c.QueryParam("all"); raw != "" {
		all, err := parseBoolToken(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid value in filter all"})
		}
		q.IncludePast = all
	}

	details, err := h.ReservationRepo.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}

	switch format := c.QueryParam("format"); format {
	case "", "json":
		results := make([]echo.Map, 0, len(details))
		for i := range details {
			results = append(results, representReservation(h.Cfg, &details[i], actor))
		}
		return c.JSON(http.StatusOK, echo.Map{"count": len(results), "results": results})
	case "xlsx":
		return h.renderReservationsXLSX(c, details, actor, "reservations.xlsx")
	default:
		return c.JSON(http.StatusNotAcceptable, echo.Map{"error": "unsupported format " + format})
	}
}

// lookupFilterUser resolves the user listing filter to an internal id
// using the configured user id attribute. A malformed or unknown value
// is a parse error; an unknown but well-formed user yields an impossible
// id so the filter simply matches nothing.
func (h *ReservationHandler) lookupFilterUser(ctx context.Context, raw string) (*uint64, error) {
	if h.Cfg.UserIDAttribute == config.UserKeyID {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	u, err := h.UserRepo.GetByUUID(ctx, parsed.String())
	return filterTarget(u.ID, err)
}

// filterTarget maps a user lookup result to a listing filter target. An
// unknown user becomes the impossible id 0 so the filter matches no
// rows instead of failing the request.
func filterTarget(id uint64, err error) (*uint64, error) {
	if errors.Is(err, sql.ErrNoRows) {
		var none uint64
		return &none, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GetReservation handles GET /v1/reservations/:id. Rows the viewer may
// not see per the listing visibility rules are reported as 404.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	actor, err := h.getActor(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	detail, err := h.ReservationRepo.GetDetailByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	if !h.visibleTo(detail, actor) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}

	switch format := c.QueryParam("format"); format {
	case "", "json":
		return c.JSON(http.StatusOK, representReservation(h.Cfg, detail, actor))
	case "xlsx":
		name := "reservation-" + strconv.FormatUint(id, 10) + ".xlsx"
		return h.renderReservationsXLSX(c, []repository.ReservationDetail{*detail}, actor, name)
	default:
		return c.JSON(http.StatusNotAcceptable, echo.Map{"error": "unsupported format " + format})
	}
}

// visibleTo applies the listing visibility rules to a single row.
func (h *ReservationHandler) visibleTo(d *repository.ReservationDetail, a model.Actor) bool {
	if a.IsStaff() || d.IsOwn(a) {
		return true
	}
	return d.State == model.StateConfirmed || d.State == model.StateRequested
}

// CreateReservation handles POST /v1/reservations. It runs the full
// validator under the resource row lock, seeds the state from the
// resource's confirmation policy and notifies the owner when an
// administrator books on their behalf.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	actor, err := h.getActor(c)
	if err != nil || !actor.Authenticated() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Begin == nil || req.End == nil {
		return fieldError(c, map[string]string{"begin": "required", "end": "required"})
	}

	ctx := c.Request().Context()
	resource, err := h.ResourceRepo.GetByID(ctx, req.Resource)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fieldError(c, map[string]string{"resource": "resource does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}

	rv := &model.Reservation{
		UserID:     actor.User.ID,
		CreatedBy:  actor.User.ID,
		ModifiedBy: actor.User.ID,
		State:      model.InitialState(resource.NeedManualConfirmation),
	}
	req.apply(rv)

	// Normal users cannot make reservations for other people: a caller
	// supplied user block is honored for administrators and silently
	// dropped for everyone else.
	if req.User != nil && resource.IsAdmin(actor) {
		owner, err := resolveUser(ctx, h.Cfg, h.UserRepo, req.User)
		if err != nil {
			return fieldError(c, map[string]string{"user": err.Error()})
		}
		rv.UserID = owner.ID
	}

	if status, body := h.validate(actor, resource, &req, rv); status != 0 {
		return c.JSON(status, body)
	}

	tx, err := h.ReservationRepo.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if status, body := h.validateLocked(ctx, tx, resource, rv, nil); status != 0 {
		return c.JSON(status, body)
	}
	if err := h.ReservationRepo.CreateTx(ctx, tx, rv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	detail, err := h.ReservationRepo.GetDetailByID(ctx, rv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	h.notifyOwner(detail, actor, "created")
	return c.JSON(http.StatusCreated, representReservation(h.Cfg, detail, actor))
}

// UpdateReservation handles PUT /v1/reservations/:id. The object
// permission gate runs first, then the validator, then the state
// machine; cancellation is not reachable here.
func (h *ReservationHandler) UpdateReservation(c echo.Context) error {
	actor, err := h.getActor(c)
	if err != nil || !actor.Authenticated() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Begin == nil || req.End == nil {
		return fieldError(c, map[string]string{"begin": "required", "end": "required"})
	}

	ctx := c.Request().Context()
	current, err := h.ReservationRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	currentResource := model.Resource{ID: current.ResourceID, UnitID: current.UnitID}
	if !h.mayWrite(current, &currentResource, actor) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	resource, err := h.ResourceRepo.GetByID(ctx, req.Resource)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fieldError(c, map[string]string{"resource": "resource does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}

	// The state machine: re-asserting the current state is a no-op, any
	// real move needs approve capability and must stay within
	// requested/confirmed/denied.
	newState := current.State
	if req.State != "" {
		if !model.ValidState(req.State) {
			return fieldError(c, map[string]string{"state": "invalid state " + req.State})
		}
		newState = req.State
	}
	if !model.StateTransitionAllowed(current.State, newState, approveCapability(&currentResource, resource, actor)) {
		return fieldError(c, map[string]string{"state": "illegal state change"})
	}

	original := &current.Reservation
	rv := *original
	rv.State = newState
	rv.ModifiedBy = actor.User.ID
	req.apply(&rv)
	if req.User != nil && resource.IsAdmin(actor) {
		owner, err := resolveUser(ctx, h.Cfg, h.UserRepo, req.User)
		if err != nil {
			return fieldError(c, map[string]string{"user": err.Error()})
		}
		rv.UserID = owner.ID
	} else {
		rv.UserID = original.UserID
	}

	if status, body := h.validate(actor, resource, &req, &rv); status != 0 {
		return c.JSON(status, body)
	}

	tx, err := h.ReservationRepo.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if status, body := h.validateLocked(ctx, tx, resource, &rv, original); status != 0 {
		return c.JSON(status, body)
	}
	if err := h.ReservationRepo.UpdateTx(ctx, tx, &rv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	detail, err := h.ReservationRepo.GetDetailByID(ctx, rv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	h.notifyOwner(detail, actor, "updated")
	return c.JSON(http.StatusOK, representReservation(h.Cfg, detail, actor))
}

// DeleteReservation handles DELETE /v1/reservations/:id. Deletion is
// logical: the reservation transitions to cancelled and the row stays.
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	actor, err := h.getActor(c)
	if err != nil || !actor.Authenticated() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	detail, err := h.ReservationRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	resource := model.Resource{ID: detail.ResourceID, UnitID: detail.UnitID}
	if !h.mayWrite(detail, &resource, actor) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if detail.State == model.StateCancelled {
		// Already cancelled; nothing to transition, nobody to notify.
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.ReservationRepo.SetState(ctx, id, model.StateCancelled, actor.User.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	detail.State = model.StateCancelled
	h.notifyOwner(detail, actor, "cancelled")
	return c.NoContent(http.StatusNoContent)
}

// approveCapability reports whether the actor may move a reservation
// between states. The capability must be held on the reservation's
// current resource; when the update also moves the reservation, it must
// be held on the target resource as well. Otherwise an owner who
// administers only the target could move their reservation there and
// approve it in the same request.
func approveCapability(current, target *model.Resource, a model.Actor) bool {
	if !current.CanApproveReservations(a) {
		return false
	}
	if target.ID != current.ID && !target.CanApproveReservations(a) {
		return false
	}
	return true
}

// mayWrite is the object-level permission gate for mutating requests.
// Confirmed reservations on manually confirmed resources are protected
// from everybody without approve capability; otherwise administrators
// and the owner may write.
func (h *ReservationHandler) mayWrite(d *repository.ReservationDetail, res *model.Resource, a model.Actor) bool {
	if d.NeedManualConfirmation && d.State == model.StateConfirmed && !res.CanApproveReservations(a) {
		return false
	}
	return res.IsAdmin(a) || d.IsOwn(a)
}

// validate runs the lock-free part of the reservation validator, in the
// order the business rules specify. A zero status means the candidate
// passed. The comments rule looks at the request rather than the
// candidate: a stored administrator comment carried over on update is
// fine, a non-administrator sending one is not.
func (h *ReservationHandler) validate(actor model.Actor, resource *model.Resource, req *reservationRequest, rv *model.Reservation) (int, echo.Map) {
	if !resource.CanMakeReservations(actor) {
		return http.StatusForbidden, echo.Map{"error": "permission denied"}
	}
	if rv.End.Before(time.Now().UTC()) {
		return http.StatusBadRequest, echo.Map{"error": "Cannot make a reservation in the past"}
	}
	if err := resource.ValidateReservationPeriod(rv.Begin, rv.End); err != nil {
		return http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": map[string]string{"end": err.Error()},
		}
	}
	if req.Comments != nil && !resource.IsAdmin(actor) {
		return http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": map[string]string{"comments": "Only allowed to be set by resource administrators"},
		}
	}
	return 0, nil
}

// validateLocked runs the checks that read cross-request mutable state.
// It first acquires the resource row lock: subsequent requests touching
// the same resource block until this transaction finishes, so the quota
// and overlap decisions cannot interleave. The quota applies to new
// reservations only; users may still modify an existing reservation
// that exceeds it.
func (h *ReservationHandler) validateLocked(ctx context.Context, tx *sql.Tx, resource *model.Resource, rv *model.Reservation, original *model.Reservation) (int, echo.Map) {
	if err := h.ResourceRepo.LockTx(ctx, tx, resource.ID); err != nil {
		return http.StatusInternalServerError, echo.Map{"error": "failed to lock resource"}
	}
	now := time.Now().UTC()
	if original == nil && resource.MaxReservationsPerUser > 0 {
		n, err := h.ReservationRepo.CountActiveTx(ctx, tx, resource.ID, rv.UserID, now)
		if err != nil {
			return http.StatusInternalServerError, echo.Map{"error": "failed to check reservation quota"}
		}
		if n >= resource.MaxReservationsPerUser {
			return http.StatusBadRequest, echo.Map{"error": "Maximum number of active reservations for this resource exceeded"}
		}
	}
	var excludeID uint64
	if original != nil {
		excludeID = original.ID
	}
	overlap, err := h.ReservationRepo.OverlapExistsTx(ctx, tx, resource.ID, rv.Begin, rv.End, excludeID)
	if err != nil {
		return http.StatusInternalServerError, echo.Map{"error": "failed to check for overlaps"}
	}
	if overlap {
		return http.StatusBadRequest, echo.Map{"error": "The resource is already reserved for this period"}
	}
	if missing := rv.RequiredExtraFieldsMissing(resource); len(missing) > 0 {
		fields := make(map[string]string, len(missing))
		for _, name := range missing {
			fields[name] = "This field is required."
		}
		return http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields}
	}
	return 0, nil
}

// notifyOwner publishes a fire-and-forget notification when the actor
// changed somebody else's reservation. Delivery failures are the
// notifier's problem; the request has already succeeded.
func (h *ReservationHandler) notifyOwner(detail *repository.ReservationDetail, actor model.Actor, action string) {
	if h.Notifier == nil || detail.IsOwn(actor) {
		return
	}
	h.Notifier.NotifyReservationChanged(detail, action, actor.User.Email)
}
