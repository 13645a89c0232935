package router

import (
	"net/http"

	"github.com/senyabanana/negotiation-service/internal/handlers"
)

func InitRoutes(proposalHandler *handlers.ProposalHandler, negotiationHandler *handlers.NegotiationHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)

	mux.HandleFunc("/api/proposals", proposalHandler.GetProposals)
	mux.HandleFunc("/api/proposals/new", proposalHandler.SubmitProposal)
	mux.HandleFunc("GET /api/proposals/{proposalId}/status", proposalHandler.GetProposalStatus)
	mux.HandleFunc("PUT /api/proposals/{proposalId}/status", proposalHandler.UpdateProposalStatus)
	mux.HandleFunc("/api/proposals/{proposalId}/versions", proposalHandler.Versions)
	mux.HandleFunc("GET /api/proposals/{proposalId}/versions/latest", proposalHandler.GetLatestVersion)
	mux.HandleFunc("/api/proposals/{proposalId}/versions/baseline", proposalHandler.EnsureBaseline)
	mux.HandleFunc("/api/proposals/{proposalId}/summary", proposalHandler.GetSummary)
	mux.HandleFunc("/api/proposals/{proposalId}/diff", proposalHandler.DiffVersions)
	mux.HandleFunc("/api/proposals/{proposalId}/timeline", negotiationHandler.GetTimeline)
	mux.HandleFunc("/api/proposals/{proposalId}/timeline/versions", negotiationHandler.GetVersionSteps)

	mux.HandleFunc("GET /api/invites/{inviteId}/status", proposalHandler.GetInviteStatus)
	mux.HandleFunc("PUT /api/invites/{inviteId}/status", proposalHandler.UpdateInviteStatus)

	mux.HandleFunc("/api/negotiations/new", negotiationHandler.CreateSession)
	mux.HandleFunc("/api/negotiations/bulk", negotiationHandler.DispatchBulk)
	mux.HandleFunc("/api/negotiations/{sessionId}/respond", negotiationHandler.Respond)
	mux.HandleFunc("/api/negotiations/{sessionId}/resolve", negotiationHandler.Resolve)
	mux.HandleFunc("/api/negotiations/{sessionId}/cancel", negotiationHandler.Cancel)
	mux.HandleFunc("/api/negotiations/{sessionId}/comments", negotiationHandler.Comments)

	return mux
}
