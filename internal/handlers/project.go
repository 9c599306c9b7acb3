package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

type ProjectManager interface {
	Create(ctx context.Context, in services.CreateProjectInput) (*models.Project, error)
	View(ctx context.Context, id string) (*models.ProjectView, error)
	List(ctx context.Context, clientID *primitive.ObjectID, status *models.PaymentStatus) ([]models.ProjectView, error)
	Update(ctx context.Context, id string, in services.UpdateProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	ExportProjects(ctx context.Context, w io.Writer) error
}

type ProjectHandler struct {
	service ProjectManager
}

func NewProjectHandler(service ProjectManager) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// statusFilter reads the optional ?status= query parameter.
func statusFilter(r *http.Request) (*models.PaymentStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := models.PaymentStatus(raw)
	if !status.Valid() {
		return nil, false
	}
	return &status, true
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in services.CreateProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	project, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProjects handles GET /api/projects?client_id=&status=
func (h *ProjectHandler) GetProjects(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "status must be pending, paid or overdue")
		return
	}
	var clientID *primitive.ObjectID
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid client_id")
			return
		}
		clientID = &id
	}

	projects, err := h.service.List(r.Context(), clientID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetClientProjects handles GET /api/client/projects for the caller's own
// client account.
func (h *ProjectHandler) GetClientProjects(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFrom(r.Context())
	if principal == nil || principal.ClientID == nil {
		writeMessage(w, http.StatusForbidden, "no client account")
		return
	}
	status, ok := statusFilter(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "status must be pending, paid or overdue")
		return
	}

	projects, err := h.service.List(r.Context(), principal.ClientID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /api/projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !PrincipalFrom(r.Context()).CanAccess(&view.Project) {
		writeError(w, services.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateProject handles PATCH /api/projects/{projectID}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	project, err := h.service.Update(r.Context(), mux.Vars(r)["projectID"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/{projectID}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["projectID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportProjects handles GET /api/projects/export
func (h *ProjectHandler) ExportProjects(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.ExportFileName(time.Now())+`"`)
	if err := h.service.ExportProjects(r.Context(), w); err != nil {
		w.Header().Del("Content-Disposition")
		writeError(w, err)
	}
}
