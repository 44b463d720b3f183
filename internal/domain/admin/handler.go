package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/web"
	"github.com/medilink/medilink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, authMW echo.MiddlewareFunc) {
	g := api.Group("/admin", authMW, auth.RequireRole(auth.RoleAdmin))
	g.GET("/stats", h.Stats)
	g.GET("/users", h.Users)
	g.GET("/patients", h.Patients)
	g.GET("/reports", h.Reports)
	g.GET("/prescriptions", h.Prescriptions)
	g.DELETE("/user/:id", h.DeleteUser)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Users(c echo.Context) error {
	params := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, params.Limit, params.Offset))
}

func (h *Handler) Patients(c echo.Context) error {
	params := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, params.Limit, params.Offset))
}

func (h *Handler) Reports(c echo.Context) error {
	params := pagination.FromContext(c)
	reports, total, err := h.svc.ListReports(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, params.Limit, params.Offset))
}

func (h *Handler) Prescriptions(c echo.Context) error {
	params := pagination.FromContext(c)
	prescriptions, total, err := h.svc.ListPrescriptions(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(prescriptions, total, params.Limit, params.Offset))
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.Validation("Invalid user id")
	}
	current := auth.UserFromContext(c.Request().Context())
	if err := h.svc.DeleteUser(c.Request().Context(), id, current.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
