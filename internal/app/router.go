package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/printdesk/printdesk/internal/backup"
	"github.com/printdesk/printdesk/internal/catalog"
	"github.com/printdesk/printdesk/internal/inventory"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/orders"
	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/reports"
	"github.com/printdesk/printdesk/internal/settings"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	OrdersHandler    *orders.Handler
	InventoryHandler *inventory.Handler
	CatalogHandler   *catalog.Handler
	SettingsHandler  *settings.Handler
	ReportsHandler   *reports.Handler
	BackupHandler    *backup.Handler
	JobHandler       *jobs.Handler
}

// NewHandlers builds every HTTP handler from svc.
func NewHandlers(logger *slog.Logger, svc *Services) RouterParams {
	return RouterParams{
		Logger:           logger,
		OrdersHandler:    orders.NewHandler(logger, svc.Orders),
		InventoryHandler: inventory.NewHandler(logger, svc.Inventory),
		CatalogHandler:   catalog.NewHandler(logger, svc.Catalog),
		SettingsHandler:  settings.NewHandler(logger, svc.Settings),
		ReportsHandler:   reports.NewHandler(logger, svc.Reports),
		BackupHandler:    backup.NewHandler(logger, svc.Backup),
	}
}

// NewRouter constructs the chi.Router with PrintDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	adminHash := ""
	if params.Config != nil {
		adminHash = params.Config.AdminTokenHash
	}
	admin := AdminGuard(adminHash, params.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/materials", func(r chi.Router) {
			params.InventoryHandler.MountMaterialRoutes(r)
			params.CatalogHandler.MountCollection(r, store.Materials)
		})
		r.Route("/purchases", params.InventoryHandler.MountPurchaseRoutes)
		r.Route("/units", params.InventoryHandler.MountUnitRoutes)
		r.Route("/tasks", func(r chi.Router) {
			params.CatalogHandler.MountTaskRoutes(r)
			params.CatalogHandler.MountCollection(r, store.Tasks)
		})
		for _, c := range catalog.Editable {
			if c == store.Materials || c == store.Tasks {
				continue
			}
			r.Route("/"+string(c), func(r chi.Router) {
				params.CatalogHandler.MountCollection(r, c)
			})
		}
		r.Route("/settings", params.SettingsHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/backup", func(r chi.Router) {
			r.Use(admin)
			params.BackupHandler.MountRoutes(r)
		})
		r.Route("/backups", func(r chi.Router) {
			r.Use(admin)
			params.BackupHandler.MountStoredRoutes(r)
		})
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.With(admin).Post("/{name}", params.JobHandler.Enqueue)
				r.Get("/health", params.JobHandler.Health)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})
	return r
}
