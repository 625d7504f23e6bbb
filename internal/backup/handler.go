package backup

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/httpx"
)

const maxImportBytes = 64 << 20

// Handler wires backup endpoints. Routes are expected behind the admin guard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the backup handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers export, import and clear.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export", h.handleExport)
	r.Post("/import", h.handleImport)
	r.Post("/clear", h.handleClear)
}

// MountStoredRoutes registers the stored backup routes.
func (h *Handler) MountStoredRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleSnapshot)
	r.Post("/restore", h.handleRestore)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	env, err := h.service.Export(r.Context())
	if err != nil {
		h.fail(w, "export", err)
		return
	}
	name := "backup_printshop_" + env.ExportDate.Format("2006-01-02") + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	httpx.JSON(w, http.StatusOK, env)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	env, err := Parse(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		h.fail(w, "import", err)
		return
	}
	if err := h.service.Import(r.Context(), env); err != nil {
		h.fail(w, "import", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		h.fail(w, "clear", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	httpx.JSON(w, http.StatusOK, infos)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.fail(w, "snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, info)
}

type restoreRequest struct {
	Key string `json:"key"`
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Restore(r.Context(), strings.TrimSpace(req.Key)); err != nil {
		h.fail(w, "restore", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	if !errors.Is(err, model.ErrValidation) {
		h.logger.Error("backup: "+action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
