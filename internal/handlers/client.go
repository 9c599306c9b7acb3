package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

type ClientManager interface {
	Create(ctx context.Context, client *models.Client) error
	Get(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Update(ctx context.Context, id string, client *models.Client) error
	Delete(ctx context.Context, id string) error
}

// ClientHandler handles the admin's client directory.
type ClientHandler struct {
	service ClientManager
}

func NewClientHandler(service ClientManager) *ClientHandler {
	return &ClientHandler{service: service}
}

// CreateClient handles POST /api/clients
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := decodeJSON(w, r, &client); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.Create(r.Context(), &client); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// GetClients handles GET /api/clients
func (h *ClientHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// GetClient handles GET /api/clients/{clientID}
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.Get(r.Context(), mux.Vars(r)["clientID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// UpdateClient handles PATCH /api/clients/{clientID}
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := decodeJSON(w, r, &client); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.Update(r.Context(), mux.Vars(r)["clientID"], &client); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// DeleteClient handles DELETE /api/clients/{clientID}
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["clientID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
