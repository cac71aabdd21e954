// Package web serves the server-rendered pages: the public quote form,
// the staff login and the quotes dashboard.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/identity"
	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
	"github.com/bissquit/quotedesk/internal/pkg/httputil"
	"github.com/bissquit/quotedesk/internal/quotes"
	"github.com/bissquit/quotedesk/internal/uploads"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Routes of the web pages.
const (
	HomePath      = "/"
	LoginPath     = "/login"
	LogoutPath    = "/logout"
	DashboardPath = "/dashboard"
)

// QuoteService is the part of quotes.Service used by the pages.
type QuoteService interface {
	Submit(ctx context.Context, input quotes.CreateInput, photos []uploads.File) (*domain.Quote, error)
	List(ctx context.Context) ([]domain.Quote, error)
}

// LoginService is the part of identity.Service used by the pages.
type LoginService interface {
	Login(ctx context.Context, input identity.LoginInput) (*domain.User, string, error)
}

// Config holds page settings.
type Config struct {
	SiteName    string
	MaxFileSize int64
	Cookie      httputil.CookieSettings
}

// Handler renders the web pages.
type Handler struct {
	quotes   QuoteService
	identity LoginService
	config   Config
	pages    map[string]*template.Template
}

// NewHandler creates a new web handler and parses all page templates.
func NewHandler(quoteService QuoteService, loginService LoginService, config Config) (*Handler, error) {
	if config.SiteName == "" {
		config.SiteName = "Vertical Works"
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = uploads.DefaultMaxFileSize
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Handler{
		quotes:   quoteService,
		identity: loginService,
		config:   config,
		pages:    pages,
	}, nil
}

// Options offered by the quote form. The API accepts free text.
var (
	ServiceTypes  = []string{"facade cleaning", "painting", "waterproofing", "window cleaning", "sealing", "other"}
	BuildingTypes = []string{"residential", "office", "industrial", "commercial", "house", "other"}
)

var titleCaser = cases.Title(language.English)

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"title": func(s string) string { return titleCaser.String(s) },
		"date": func(t time.Time) string {
			return t.Local().Format("02 Jan 2006 15:04")
		},
		"day": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"services":  func() []string { return ServiceTypes },
		"buildings": func() []string { return BuildingTypes },
		"urgencies": func() []string { return []string{"high", "medium", "low"} },
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"form", "thanks", "login", "dashboard", "error"} {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// RegisterRoutes registers the page routes and static assets.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(HomePath, h.Form)
	r.Post(HomePath, h.Submit)
	r.Get(LoginPath, h.LoginPage)
	r.Post(LoginPath, h.Login)
	r.Post(LogoutPath, h.Logout)
	r.Get(DashboardPath, h.Dashboard)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

type page struct {
	SiteName string
	Title    string
	Data     interface{}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	err := h.pages[name].Execute(w, page{SiteName: h.config.SiteName, Title: title, Data: data})
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to render page", "page", name, "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", http.StatusText(status), message)
}

// formData is the state of the quote form.
type formData struct {
	Values    map[string]string
	Errors    map[string]string
	Message   string
	MaxPhotos int
	MaxSizeMB int64
}

func (h *Handler) newFormData() formData {
	return formData{
		Values:    map[string]string{},
		Errors:    map[string]string{},
		MaxPhotos: quotes.MaxPhotos,
		MaxSizeMB: h.config.MaxFileSize >> 20,
	}
}

// Form handles GET /.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "form", "Request a quote", h.newFormData())
}

var formFields = []string{
	"name", "email", "phone", "service_type", "building_type", "floors",
	"area_m2", "address", "execution_date", "budget", "urgency", "comments",
}

// Submit handles POST /, the multipart quote form.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	data := h.newFormData()
	limit := h.config.MaxFileSize*quotes.MaxPhotos + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(h.config.MaxFileSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			data.Message = "The attached photos are too large."
			h.render(w, r, http.StatusRequestEntityTooLarge, "form", "Request a quote", data)
			return
		}
		h.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	for _, field := range formFields {
		data.Values[field] = strings.TrimSpace(r.PostFormValue(field))
	}

	input, fieldErrs := formInput(data.Values)
	photos, photoErr := readPhotos(r, h.config.MaxFileSize)
	if photoErr != "" {
		fieldErrs["photos"] = photoErr
	}
	if len(fieldErrs) > 0 {
		data.Errors = fieldErrs
		h.render(w, r, http.StatusBadRequest, "form", "Request a quote", data)
		return
	}

	quote, err := h.quotes.Submit(r.Context(), input, photos)
	if err != nil {
		switch {
		case errors.Is(err, quotes.ErrValidation):
			for _, fe := range httputil.FieldErrors(err) {
				data.Errors[fe.Field] = fieldMessage(fe.Message)
			}
			h.render(w, r, http.StatusBadRequest, "form", "Request a quote", data)
		case errors.Is(err, quotes.ErrTooManyPhotos):
			data.Errors["photos"] = fmt.Sprintf("Attach at most %d photos.", quotes.MaxPhotos)
			h.render(w, r, http.StatusBadRequest, "form", "Request a quote", data)
		case errors.Is(err, quotes.ErrPhotoUploading):
			data.Message = "We could not upload your photos. Please try again."
			h.render(w, r, http.StatusBadGateway, "form", "Request a quote", data)
		default:
			ctxlog.FromContext(r.Context()).Error("quote submission failed", "error", err)
			data.Message = "Something went wrong. Please try again later."
			h.render(w, r, http.StatusInternalServerError, "form", "Request a quote", data)
		}
		return
	}

	h.render(w, r, http.StatusCreated, "thanks", "Thank you", quote)
}

// formInput converts form values into quote input. Numbers that do not
// parse are reported as field errors.
func formInput(values map[string]string) (quotes.CreateInput, map[string]string) {
	errs := map[string]string{}
	input := quotes.CreateInput{
		Name:          values["name"],
		Email:         values["email"],
		Phone:         values["phone"],
		ServiceType:   values["service_type"],
		BuildingType:  values["building_type"],
		Address:       values["address"],
		ExecutionDate: values["execution_date"],
		Budget:        values["budget"],
		Urgency:       values["urgency"],
		Comments:      values["comments"],
	}

	if v := values["floors"]; v != "" {
		floors, err := strconv.Atoi(v)
		if err != nil {
			errs["floors"] = "Enter a whole number."
		} else {
			input.Floors = &floors
		}
	}
	if v := values["area_m2"]; v != "" {
		area, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			errs["area_m2"] = "Enter a number."
		} else {
			input.AreaM2 = &area
		}
	}

	return input, errs
}

func readPhotos(r *http.Request, maxSize int64) ([]uploads.File, string) {
	headers := r.MultipartForm.File["photos"]
	if len(headers) > quotes.MaxPhotos {
		return nil, fmt.Sprintf("Attach at most %d photos.", quotes.MaxPhotos)
	}

	photos := make([]uploads.File, 0, len(headers))
	for _, header := range headers {
		// Browsers send an empty part when no file is chosen.
		if header.Filename == "" && header.Size == 0 {
			continue
		}
		file, err := uploads.ReadFile(header, maxSize)
		if err != nil {
			switch {
			case errors.Is(err, uploads.ErrFileTooLarge):
				return nil, fmt.Sprintf("%s is larger than %d MB.", header.Filename, maxSize>>20)
			case errors.Is(err, uploads.ErrUnsupportedType):
				return nil, fmt.Sprintf("%s is not a JPEG, PNG, GIF or WebP image.", header.Filename)
			case errors.Is(err, uploads.ErrNoFile):
				return nil, fmt.Sprintf("%s is empty.", header.Filename)
			default:
				return nil, "The photos could not be read."
			}
		}
		photos = append(photos, file)
	}
	return photos, ""
}

func fieldMessage(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "This value is too short."
	case "max":
		return "This value is too long."
	case "gt":
		return "Enter a value greater than zero."
	case "datetime":
		return "Enter a date as YYYY-MM-DD."
	case "oneof":
		return "Choose one of the listed options."
	case "url":
		return "Enter a valid URL."
	default:
		return "This value is not valid."
	}
}

type loginData struct {
	Email   string
	Message string
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", "Staff login", loginData{})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	data := loginData{Email: strings.TrimSpace(r.PostFormValue("email"))}
	password := r.PostFormValue("password")
	if data.Email == "" || password == "" {
		data.Message = "Enter your email and password."
		h.render(w, r, http.StatusBadRequest, "login", "Staff login", data)
		return
	}

	_, token, err := h.identity.Login(r.Context(), identity.LoginInput{Email: data.Email, Password: password})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			data.Message = "Invalid email or password."
			h.render(w, r, http.StatusUnauthorized, "login", "Staff login", data)
			return
		}
		ctxlog.FromContext(r.Context()).Error("login failed", "error", err)
		data.Message = "Something went wrong. Please try again later."
		h.render(w, r, http.StatusInternalServerError, "login", "Staff login", data)
		return
	}

	httputil.SetTokenCookie(w, h.config.Cookie, token)
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearTokenCookie(w, h.config.Cookie)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

type dashboardData struct {
	User   *domain.Claims
	Quotes []domain.Quote
}

// Dashboard handles GET /dashboard. The session guard runs before it.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.quotes.List(r.Context())
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to list quotes", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Quotes could not be loaded.")
		return
	}

	h.render(w, r, http.StatusOK, "dashboard", "Quotes", dashboardData{
		User:   httputil.GetClaims(r.Context()),
		Quotes: list,
	})
}
