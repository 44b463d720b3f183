package lab

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/web"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts both the lab technician surface and the doctor
// surface, which share this service.
func (h *Handler) RegisterRoutes(api *echo.Group, authMW echo.MiddlewareFunc) {
	lab := api.Group("/lab", authMW)
	lab.GET("/assignments", h.Assignments, auth.RequireRole(auth.RoleLab))
	lab.POST("/upload", h.Upload, auth.RequireRole(auth.RoleLab))
	lab.GET("/reports/:patientId", h.ReportsByPatient)
	lab.PUT("/:id", h.Reupload, auth.RequireRole(auth.RoleLab))

	doctor := api.Group("/doctor", authMW, auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/assign-lab-test", h.AssignTest)
	doctor.GET("/patient/:patientId", h.PatientByID)
	doctor.GET("/patient/:patientId/reports", h.ReportsByPatient)
}

func formReportFile(c echo.Context) *FileUpload {
	fh, err := c.FormFile("report")
	if err != nil {
		return nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil
	}
	return &FileUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	}
}

func closeFile(f *FileUpload) {
	if f == nil {
		return
	}
	if closer, ok := f.Content.(io.Closer); ok {
		closer.Close()
	}
}

type assignRequest struct {
	PatientID string `json:"patientId"`
	TestName  string `json:"testName"`
}

func (h *Handler) AssignTest(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return web.Validation("Invalid request body")
	}
	current := auth.UserFromContext(c.Request().Context())
	t, err := h.svc.AssignTest(c.Request().Context(), req.PatientID, req.TestName, current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Lab test assigned successfully",
		"labTest": t,
	})
}

func (h *Handler) Assignments(c echo.Context) error {
	tests, err := h.svc.PendingAssignments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tests)
}

func (h *Handler) Upload(c echo.Context) error {
	file := formReportFile(c)
	defer closeFile(file)

	in := UploadInput{
		PatientID: c.FormValue("patientId"),
		TestName:  c.FormValue("testName"),
		File:      file,
	}
	if raw := c.FormValue("testId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return web.Validation("Invalid test id")
		}
		in.TestID = &id
	}

	current := auth.UserFromContext(c.Request().Context())
	rep, err := h.svc.UploadReport(c.Request().Context(), in, current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Report uploaded successfully",
		"report":  rep,
	})
}

func (h *Handler) Reupload(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.Validation("Invalid report id")
	}
	file := formReportFile(c)
	defer closeFile(file)

	current := auth.UserFromContext(c.Request().Context())
	rep, err := h.svc.Reupload(c.Request().Context(), id, ReuploadInput{
		TestName: c.FormValue("testName"),
		File:     file,
	}, current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Report re-uploaded successfully",
		"report":  rep,
	})
}

func (h *Handler) ReportsByPatient(c echo.Context) error {
	reports, err := h.svc.ReportsByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) PatientByID(c echo.Context) error {
	p, err := h.svc.PatientByID(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
