package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"housing/internal/api"
	"housing/internal/application"
	"housing/internal/auth"
	"housing/internal/dashboard"
	"housing/internal/identity"
	"housing/internal/intake"
	"housing/internal/notify"
	"housing/internal/preapproval"
	"housing/internal/room"
	"housing/internal/roomimage"
	"housing/internal/upload"
	"housing/internal/user"
	"housing/pkg/config"
	"housing/pkg/metrics"
	"housing/pkg/supabase"
)

type Dependencies struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Logger *zap.Logger
	// Redis is optional; without it roles are read from the database on every request.
	Redis    *redis.Client
	Supabase *supabase.Client
	Notifier notify.Notifier
	Metrics  *metrics.HTTPMetrics
}

func NewRouter(deps Dependencies) (http.Handler, error) {
	policy, err := preApprovalPolicy(deps.Cfg.PreApproval)
	if err != nil {
		return nil, err
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	secure := deps.Cfg.SecureCookies()

	users := user.NewRepository(deps.DB)
	var cache *identity.Cache
	if deps.Redis != nil {
		cache = identity.NewCache(deps.Redis, deps.Cfg.Redis.IdentityTTL)
	}
	resolver := identity.NewResolver(deps.Cfg.Supabase.JWTSecret, users, cache)

	uploader := &upload.Uploader{Objects: deps.Supabase, Bucket: deps.Cfg.Supabase.StorageBucket}

	applications := application.NewRepository(deps.DB)
	applicationHandlers := application.Handlers{
		Gateway: &application.Gateway{
			Store:      applications,
			Policy:     policy,
			Identities: deps.Supabase,
			Notifier:   notifier,
		},
		Review:        &application.Review{Store: applications, Notifier: notifier},
		SecureCookies: secure,
	}
	authHandlers := auth.Handlers{Auth: deps.Supabase, Identities: resolver, SecureCookies: secure}
	roomHandlers := room.Handlers{Store: room.NewRepository(deps.DB), Uploader: uploader}
	imageHandlers := roomimage.Handlers{Store: roomimage.NewRepository(deps.DB), Uploader: uploader}
	uploadHandlers := upload.Handlers{Uploader: uploader}
	userHandlers := user.Handlers{Service: &user.Service{
		Store:            users,
		Identities:       deps.Supabase,
		Roles:            resolver,
		RecoveryRedirect: deps.Cfg.Supabase.RecoveryRedirect,
	}}
	dashboardHandlers := dashboard.Handlers{Counter: dashboard.NewRepository(deps.DB)}
	intakeHandlers := intake.Handlers{}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(api.CORSMiddleware(api.CORSOptions{AllowedOrigins: deps.Cfg.AllowedOrigins}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(api.Authenticate(resolver))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandlers.Login)
			r.Post("/logout", authHandlers.Logout)
			r.Get("/session", authHandlers.Session)
		})

		// Intake
		r.Get("/intake/steps", intakeHandlers.Steps)
		r.Post("/intake/steps/{step}/validate", intakeHandlers.ValidateStep)
		r.Post("/applications", applicationHandlers.Submit)

		// Rooms: reads are public, writes are admin-only.
		r.Get("/rooms", roomHandlers.List)
		r.Get("/rooms/{id}", roomHandlers.Get)
		r.Get("/rooms/{id}/images", imageHandlers.List)
		r.Group(func(r chi.Router) {
			r.Use(api.RequireAdmin)

			r.Post("/rooms", roomHandlers.Create)
			r.Put("/rooms/{id}", roomHandlers.Update)
			r.Delete("/rooms/{id}", roomHandlers.Delete)
			r.Post("/rooms/{id}/images", imageHandlers.Create)
			r.Patch("/rooms/{id}/images/{imageId}", imageHandlers.Patch)
			r.Delete("/rooms/{id}/images/{imageId}", imageHandlers.Delete)
			r.Post("/upload", uploadHandlers.Upload)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(api.RequireAdmin)

			r.Get("/dashboard", dashboardHandlers.Get)

			r.Get("/applications", applicationHandlers.List)
			r.Get("/applications/export", applicationHandlers.Export)
			r.Get("/applications/{id}", applicationHandlers.Get)
			r.Patch("/applications/{id}/status", applicationHandlers.PatchStatus)

			r.Get("/users", userHandlers.List)
			r.Post("/users", userHandlers.Invite)
			r.Patch("/users/{id}/role", userHandlers.PatchRole)
		})
	})

	return r, nil
}

func preApprovalPolicy(cfg config.PreApprovalConfig) (preapproval.Policy, error) {
	p := preapproval.DefaultPolicy()
	if cfg.MinMonthlyIncome != "" {
		floor, err := decimal.NewFromString(cfg.MinMonthlyIncome)
		if err != nil {
			return p, err
		}
		p.MinMonthlyIncome = floor
	}
	missing, err := preapproval.ParseMissingFieldPolicy(cfg.MissingFields)
	if err != nil {
		return p, err
	}
	p.MissingFields = missing
	return p, nil
}
