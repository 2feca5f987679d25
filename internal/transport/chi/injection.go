package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dommem "github.com/kailas-cloud/recall/internal/domain/memory"
)

// GetInjection handles GET /users/{userID}/conversations/{conversationID}/injection.
// The optional "message" query parameter is the user's current message.
func (s *Server) GetInjection(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	conversationID := chi.URLParam(r, "conversationID")
	message := r.URL.Query().Get("message")

	inj := s.injection.PrepareInjection(r.Context(), userID, conversationID, message)
	if inj.StandingInstructions == nil {
		inj.StandingInstructions = []dommem.StandingInstruction{}
	}
	if inj.Memories == nil {
		inj.Memories = []dommem.Memory{}
	}

	writeJSON(w, http.StatusOK, inj)
}
