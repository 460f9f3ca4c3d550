package readiness

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/asc/asc/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "nurse", "surgeon", "materials", "scheduler"))
	readGroup.GET("/cases/:id/readiness", h.CaseReadiness)
	readGroup.GET("/cases/:id/attestations", h.ListAttestations)
	readGroup.GET("/facilities/day-before", h.DayBefore)

	writeGroup := api.Group("", auth.RequireRole("admin", "nurse", "surgeon"))
	writeGroup.POST("/cases/:id/attestations", h.Attest)
	writeGroup.POST("/attestations/:id/void", h.Void)
	writeGroup.POST("/cases/:id/verifications", h.Verify)
	writeGroup.DELETE("/cases/:id/verifications/:instanceId", h.Unverify)
}

// statusFor maps the engine's named conflicts onto HTTP statuses so
// the UI can show a precise remediation message per condition.
func statusFor(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrAlreadyAttested):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAlreadyVoided):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAlreadyReservedForOtherCase):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInstanceNotEligible):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrVoidReasonRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRequirementNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrAttestationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) CaseReadiness(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snapshot, err := h.svc.CaseReadiness(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) DayBefore(c echo.Context) error {
	facilityID, err := uuid.Parse(c.QueryParam("facility_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "facility_id is required")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	refresh := c.QueryParam("refresh") == "true"

	result, err := h.svc.Aggregate(c.Request().Context(), facilityID, date, refresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

type attestRequest struct {
	Type  string  `json:"type"`
	Notes *string `json:"notes,omitempty"`
}

func (h *Handler) Attest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req attestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := auth.ActorFromContext(c)
	a, err := h.svc.Attest(c.Request().Context(), id, req.Type, userID, req.Notes)
	if err != nil {
		return statusFor(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Void(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req voidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := auth.ActorFromContext(c)
	a, err := h.svc.VoidAttestation(c.Request().Context(), id, userID, req.Reason)
	if err != nil {
		return statusFor(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAttestations(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	list, err := h.svc.ListAttestations(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if list == nil {
		list = []*Attestation{}
	}
	return c.JSON(http.StatusOK, list)
}

type verifyRequest struct {
	CatalogID  uuid.UUID `json:"catalog_id"`
	InstanceID uuid.UUID `json:"instance_id"`
}

func (h *Handler) Verify(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CatalogID == uuid.Nil || req.InstanceID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "catalog_id and instance_id are required")
	}
	userID, _ := auth.ActorFromContext(c)
	if err := h.svc.Verify(c.Request().Context(), id, req.CatalogID, req.InstanceID, userID); err != nil {
		return statusFor(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Unverify(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	instanceID, err := uuid.Parse(c.Param("instanceId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance id")
	}
	if err := h.svc.Unverify(c.Request().Context(), id, instanceID); err != nil {
		return statusFor(err)
	}
	return c.NoContent(http.StatusNoContent)
}
