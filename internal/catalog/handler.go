package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/store"
)

// Handler wires the generic record endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountCollection registers list, create, get, update and delete for c.
func (h *Handler) MountCollection(r chi.Router, c store.Collection) {
	r.Get("/", h.handleList(c))
	r.Post("/", h.handleCreate(c))
	r.Get("/{id}", h.handleGet(c))
	r.Put("/{id}", h.handleUpdate(c))
	r.Patch("/{id}", h.handleUpdate(c))
	r.Delete("/{id}", h.handleDelete(c))
}

// MountTaskRoutes registers task specific routes.
func (h *Handler) MountTaskRoutes(r chi.Router) {
	r.Post("/{id}/toggle", h.handleToggleTask)
}

func (h *Handler) handleList(c store.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.service.List(r.Context(), c, r.URL.Query().Get("q"))
		if err != nil {
			h.fail(w, c, err)
			return
		}
		httpx.JSON(w, http.StatusOK, recs)
	}
}

func (h *Handler) handleGet(c store.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		rec, err := h.service.Get(r.Context(), c, id)
		if err != nil {
			h.fail(w, c, err)
			return
		}
		httpx.JSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) handleCreate(c store.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec store.Record
		if err := httpx.DecodeJSON(r, &rec); err != nil {
			httpx.RespondError(w, err)
			return
		}
		stored, err := h.service.Create(r.Context(), c, rec)
		if err != nil {
			h.fail(w, c, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, stored)
	}
}

func (h *Handler) handleUpdate(c store.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var patch store.Record
		if err := httpx.DecodeJSON(r, &patch); err != nil {
			httpx.RespondError(w, err)
			return
		}
		stored, err := h.service.Update(r.Context(), c, id, patch)
		if err != nil {
			h.fail(w, c, err)
			return
		}
		httpx.JSON(w, http.StatusOK, stored)
	}
}

func (h *Handler) handleDelete(c store.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if _, err := h.service.Delete(r.Context(), c, id); err != nil {
			h.fail(w, c, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.ToggleTask(r.Context(), id)
	if err != nil {
		h.fail(w, store.Tasks, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) fail(w http.ResponseWriter, c store.Collection, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrUnknownCollection):
	default:
		h.logger.Error("catalog: request failed", slog.String("collection", string(c)), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
