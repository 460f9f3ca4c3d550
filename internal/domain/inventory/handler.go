package inventory

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/asc/asc/internal/platform/auth"
	"github.com/asc/asc/internal/platform/query"
	"github.com/asc/asc/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "materials", "nurse", "surgeon"))
	readGroup.GET("/inventory-instances", h.List)
	readGroup.GET("/inventory-instances/:id", h.Get)
	readGroup.GET("/inventory-instances/:id/events", h.GetEvents)
	readGroup.GET("/inventory/risk-queue", h.RiskQueue)

	writeGroup := api.Group("", auth.RequireRole("admin", "materials", "nurse"))
	writeGroup.POST("/inventory-instances", h.CheckIn)
	writeGroup.PUT("/inventory-instances/:id", h.UpdateTracking)
	writeGroup.POST("/inventory-instances/:id/status", h.ChangeStatus)
	writeGroup.POST("/inventory-instances/:id/move", h.Move)
	writeGroup.POST("/inventory-instances/:id/scan", h.Scan)
}

func (h *Handler) CheckIn(c echo.Context) error {
	var inst InventoryInstance
	if err := c.Bind(&inst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := auth.ActorFromContext(c)
	if err := h.svc.CheckIn(c.Request().Context(), &inst, userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, inst)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inst, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "inventory instance not found")
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := query.ExtractFilterParams(c)
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateTracking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var inst InventoryInstance
	if err := c.Bind(&inst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inst.ID = id
	updated, err := h.svc.UpdateTracking(c.Request().Context(), &inst)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

type statusRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty"`
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := auth.ActorFromContext(c)
	inst, err := h.svc.ChangeStatus(c.Request().Context(), id, req.Status, userID, req.Note)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, inst)
}

type moveRequest struct {
	LocationID *uuid.UUID `json:"location_id"`
}

func (h *Handler) Move(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := auth.ActorFromContext(c)
	inst, err := h.svc.Move(c.Request().Context(), id, req.LocationID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) Scan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, _ := auth.ActorFromContext(c)
	inst, err := h.svc.Scan(c.Request().Context(), id, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) GetEvents(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	events, err := h.svc.GetEvents(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) RiskQueue(c echo.Context) error {
	facilityID, err := uuid.Parse(c.QueryParam("facility_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "facility_id is required")
	}
	entries, err := h.svc.RiskQueue(c.Request().Context(), facilityID, time.Now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []RiskEntry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"risk_items": entries})
}
