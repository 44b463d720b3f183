package prescription

import (
	"encoding/json"
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
	rx := api.Group("/prescriptions", authMW)
	rx.POST("", h.Create, auth.RequireRole(auth.RoleDoctor))
	rx.GET("", h.List, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	rx.GET("/:patientId", h.ForPatient)

	ph := api.Group("/pharmacy", authMW)
	ph.PUT("/update", h.UpdateStatus, auth.RequireRole(auth.RolePharmacy, auth.RoleAdmin))
	ph.GET("/:patientId", h.PharmacyView, auth.RequireRole(auth.RolePharmacy, auth.RoleAdmin, auth.RoleDoctor))
}

type createRequest struct {
	PatientID string          `json:"patientId"`
	Medicines json.RawMessage `json:"medicines"`
}

// parseMedicines accepts the list either directly or double-encoded as a
// JSON string, which is how form-built clients send it.
func parseMedicines(raw json.RawMessage) ([]MedicineEntry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	var medicines []MedicineEntry
	if err := json.Unmarshal(raw, &medicines); err != nil {
		return nil, web.Validation("Medicines must be a non-empty array")
	}
	return medicines, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return web.Validation("Invalid request body")
	}
	medicines, err := parseMedicines(req.Medicines)
	if err != nil {
		return err
	}

	current := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.Create(c.Request().Context(), req.PatientID, medicines, current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Prescription created successfully",
		"prescription": p,
	})
}

func (h *Handler) ForPatient(c echo.Context) error {
	out, err := h.svc.ForPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) PharmacyView(c echo.Context) error {
	out, err := h.svc.PharmacyView(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	prescriptions, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(prescriptions, total, params.Limit, params.Offset))
}

type updateStatusRequest struct {
	PatientID      string    `json:"patientId"`
	PrescriptionID uuid.UUID `json:"prescriptionId"`
	MedicineIndex  *int      `json:"medicineIndex"`
	MedicineName   string    `json:"medicineName"`
	Status         Status    `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return web.Validation("Invalid request body")
	}

	current := auth.UserFromContext(c.Request().Context())
	st, err := h.svc.UpdateStatus(c.Request().Context(), UpdateStatusInput{
		PatientID:      req.PatientID,
		PrescriptionID: req.PrescriptionID,
		MedicineIndex:  req.MedicineIndex,
		MedicineName:   req.MedicineName,
		Status:         req.Status,
	}, current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Medicine status updated successfully",
		"status":  st,
	})
}
