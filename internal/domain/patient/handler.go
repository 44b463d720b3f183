package patient

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(api *echo.Group, authMW echo.MiddlewareFunc) {
	g := api.Group("/patients", authMW)
	g.POST("", h.Create, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	g.GET("/me/profile", h.OwnProfile, auth.RequireRole(auth.RolePatient))
	g.GET("/by-id/:patientId", h.GetByPatientID)
	g.GET("/id-card/:patientId", h.IDCard)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	g.DELETE("/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

// formInt reads an optional numeric form field. Empty yields zero; anything
// non-numeric is a validation error.
func formInt(c echo.Context, name string) (int, error) {
	v := c.FormValue(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, web.Validation(fmt.Sprintf("%s must be a number", name))
	}
	return n, nil
}

// formPhoto reads the optional photo part of a multipart request.
func formPhoto(c echo.Context) (*PhotoUpload, error) {
	// A missing part or a non-multipart body both mean no photo; the field
	// is optional everywhere it is accepted.
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, web.Validation("Could not read uploaded photo")
	}
	return &PhotoUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	}, nil
}

func closePhoto(p *PhotoUpload) {
	if p == nil {
		return
	}
	if closer, ok := p.Content.(io.Closer); ok {
		closer.Close()
	}
}

type loginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Note     string `json:"note"`
}

type createdPatient struct {
	*Patient
	Email string `json:"email"`
}

func (h *Handler) Create(c echo.Context) error {
	age, err := formInt(c, "age")
	if err != nil {
		return err
	}
	birthYear, err := formInt(c, "birthYear")
	if err != nil {
		return err
	}
	photo, err := formPhoto(c)
	if err != nil {
		return err
	}
	defer closePhoto(photo)

	current := auth.UserFromContext(c.Request().Context())
	res, err := h.svc.Create(c.Request().Context(), CreateInput{
		Name:      c.FormValue("name"),
		Age:       age,
		Gender:    c.FormValue("gender"),
		Contact:   c.FormValue("contact"),
		BirthYear: birthYear,
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		Photo:     photo,
	}, current.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Patient created successfully with login credentials",
		"patient": createdPatient{Patient: res.Patient, Email: res.Email},
		"loginCredentials": loginCredentials{
			Email:    res.Email,
			Password: "***hidden***",
			Note:     "Please share these credentials with the patient securely",
		},
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.Validation("Invalid patient id")
	}
	current := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.Get(c.Request().Context(), id, current)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByPatientID(c echo.Context) error {
	current := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.GetByPatientID(c.Request().Context(), c.Param("patientId"), current)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) OwnProfile(c echo.Context) error {
	current := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.OwnProfile(c.Request().Context(), current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.Validation("Invalid patient id")
	}
	age, err := formInt(c, "age")
	if err != nil {
		return err
	}
	birthYear, err := formInt(c, "birthYear")
	if err != nil {
		return err
	}
	photo, err := formPhoto(c)
	if err != nil {
		return err
	}
	defer closePhoto(photo)

	current := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.Update(c.Request().Context(), id, UpdateInput{
		Name:      c.FormValue("name"),
		Age:       age,
		Gender:    c.FormValue("gender"),
		Contact:   c.FormValue("contact"),
		BirthYear: birthYear,
		Photo:     photo,
	}, current.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Patient updated successfully",
		"patient": p,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.Validation("Invalid patient id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Patient deleted successfully"})
}

func (h *Handler) IDCard(c echo.Context) error {
	current := auth.UserFromContext(c.Request().Context())
	pdf, filename, err := h.svc.IDCard(c.Request().Context(), c.Param("patientId"), current)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
