package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TaskForge/internal/config"
	"github.com/Strob0t/TaskForge/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, webhookCfg config.Webhook) {
	r.Get("/healthz", h.Health)

	// Webhooks sit outside owner auth; each source is verified by its
	// shared-secret HMAC signature instead.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(middleware.WebhookHMAC(webhookCfg.GmailSecret, "X-Goog-Signature")).
			Post("/gmail", h.HandleWebhook("gmail"))
		r.With(middleware.WebhookHMAC(webhookCfg.HubSpotSecret, "X-HubSpot-Signature")).
			Post("/hubspot", h.HandleWebhook("hubspot"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OwnerID)

		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Tasks
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{id}", h.GetTask)
		r.Post("/tasks/{id}/process", h.ProcessTask)

		// Standing instructions
		r.Post("/instructions", h.CreateInstruction)
		r.Get("/instructions", h.ListInstructions)
		r.Post("/instructions/{id}/toggle", h.ToggleInstruction)

		// Mirror sync
		r.Post("/sync/messages", h.SyncMessages)
		r.Post("/sync/contacts", h.SyncContacts)
	})
}
