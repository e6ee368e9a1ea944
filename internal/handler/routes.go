package handler

import (
	"net/http"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/service"
	"github.com/msomdec/taskdesk/internal/validate"
)

// Services bundles the dependencies the routes need.
type Services struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Uploads *service.UploadService
	Limiter service.RateLimiter
	DB      Pinger
	Metrics *Metrics
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s Services) {
	limiter := s.Limiter
	if limiter == nil {
		limiter = service.NopLimiter{}
	}

	authH := NewAuthHandler(s.Auth, s.Users)
	userH := NewUserHandler(s.Users)
	uploadH := NewUploadHandler(s.Uploads)

	handle := func(pattern string, h http.HandlerFunc, guards ...Guard) {
		mux.Handle(pattern, instrument(pattern, Pipeline(h, guards...), s.Metrics))
	}
	authed := Authenticate(s.Auth)
	admin := Authorize(domain.RoleAdmin)

	handle("POST /auth/register", authH.HandleRegister, RateLimit(limiter, "register", s.Metrics), ValidateBody(validate.Register))
	handle("POST /auth/login", authH.HandleLogin, RateLimit(limiter, "login", s.Metrics), ValidateBody(validate.Login))
	handle("GET /auth/profile", authH.HandleProfile, authed)
	handle("GET /auth/me", authH.HandleProfile, authed)
	handle("PUT /auth/profile", authH.HandleUpdateProfile, authed, ValidateBody(validate.UpdateProfile))
	handle("PUT /auth/password", authH.HandleChangePassword, authed, ValidateBody(validate.ChangePassword))
	handle("GET /admin/dashboard", authH.HandleAdminDashboard, authed, admin)

	handle("GET /users", userH.HandleList, authed, admin)
	handle("POST /users", userH.HandleCreate, authed, admin, ValidateBody(validate.AdminCreateUser))
	handle("GET /users/{id}", userH.HandleGet, authed, admin)
	handle("PUT /users/{id}", userH.HandleUpdate, authed, admin, ValidateBody(validate.AdminUpdateUser))
	handle("DELETE /users/{id}", userH.HandleDelete, authed, admin)

	handle("POST /upload/profile-picture", uploadH.HandleProfilePicture, authed)
	handle("GET /files/{key...}", uploadH.HandleFile)

	handle("GET /healthz", HandleHealthz(s.DB))
	handle("GET /docs", HandleDocs().ServeHTTP)
	handle("GET /{$}", HandleHome)
	handle("/", HandleNotFound)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
}

// NewRouter returns the full HTTP handler: routes wrapped in CORS and
// security headers.
func NewRouter(s Services, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, s)
	return SecurityHeaders(CORS(corsOrigins, mux))
}
