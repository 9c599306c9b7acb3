package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Users    *UserHandler
	Clients  *ClientHandler
	Projects *ProjectHandler
	Settings *SettingsHandler
	Payments *PaymentHandler
}

// NewRouter registers every route. Gateway notification routes are public;
// everything under /api except login needs a bearer token.
func NewRouter(h Handlers, tokens TokenParser) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")

	// Gateway notifications, each under its current path and its legacy one.
	router.HandleFunc("/bkash/callback", h.Payments.BkashCallback).Methods("GET")
	router.HandleFunc("/bkash-style-callback", h.Payments.BkashCallback).Methods("GET")
	router.HandleFunc("/piprapay/return", h.Payments.PiprapayReturn).Methods("GET")
	router.HandleFunc("/piprapay-return", h.Payments.PiprapayReturn).Methods("GET")
	router.HandleFunc("/piprapay/webhook", h.Payments.PiprapayWebhook).Methods("POST")
	router.HandleFunc("/piprapay-webhook", h.Payments.PiprapayWebhook).Methods("POST")

	router.HandleFunc("/api/login", h.Users.Login).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))

	api.HandleFunc("/user", AdminOnly(h.Users.CreateUser)).Methods("POST")
	api.HandleFunc("/user", AdminOnly(h.Users.GetUsers)).Methods("GET")

	api.HandleFunc("/clients", AdminOnly(h.Clients.CreateClient)).Methods("POST")
	api.HandleFunc("/clients", AdminOnly(h.Clients.GetClients)).Methods("GET")
	api.HandleFunc("/clients/{clientID}", AdminOnly(h.Clients.GetClient)).Methods("GET")
	api.HandleFunc("/clients/{clientID}", AdminOnly(h.Clients.UpdateClient)).Methods("PATCH")
	api.HandleFunc("/clients/{clientID}", AdminOnly(h.Clients.DeleteClient)).Methods("DELETE")

	api.HandleFunc("/projects", AdminOnly(h.Projects.CreateProject)).Methods("POST")
	api.HandleFunc("/projects", AdminOnly(h.Projects.GetProjects)).Methods("GET")
	api.HandleFunc("/projects/export", AdminOnly(h.Projects.ExportProjects)).Methods("GET")
	api.HandleFunc("/projects/{projectID}", h.Projects.GetProject).Methods("GET")
	api.HandleFunc("/projects/{projectID}", AdminOnly(h.Projects.UpdateProject)).Methods("PATCH")
	api.HandleFunc("/projects/{projectID}", AdminOnly(h.Projects.DeleteProject)).Methods("DELETE")
	api.HandleFunc("/projects/{projectID}/pay/bkash", h.Payments.StartBkash).Methods("POST")
	api.HandleFunc("/projects/{projectID}/pay/piprapay", h.Payments.StartPiprapay).Methods("POST")
	api.HandleFunc("/client/projects", h.Projects.GetClientProjects).Methods("GET")
	api.HandleFunc("/piprapay/verify", h.Payments.VerifyPiprapay).Methods("POST")
	api.HandleFunc("/orders/{orderID}/events", AdminOnly(h.Payments.PaymentEvents)).Methods("GET")

	api.HandleFunc("/settings/{provider}", AdminOnly(h.Settings.GetSettings)).Methods("GET")
	api.HandleFunc("/settings/{provider}", AdminOnly(h.Settings.UpdateSettings)).Methods("PUT")

	return router
}
