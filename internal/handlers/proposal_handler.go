package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"
	"github.com/senyabanana/negotiation-service/internal/services"
	"github.com/senyabanana/negotiation-service/internal/utils"
)

// ProposalHandler - структура для обработки HTTP-запросов по откликам.
type ProposalHandler struct {
	Service *services.ProposalService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewProposalHandler создает новый экземпляр ProposalHandler.
func NewProposalHandler(service *services.ProposalService, logger *log.Logger, timeout time.Duration) *ProposalHandler {
	return &ProposalHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// respondError отправляет ошибку сервиса с её кодом, а неизвестную - как 500.
func respondError(w http.ResponseWriter, logger *log.Logger, err error, fallback string) {
	logger.Println(err)
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

// requireActor проверяет наличие заголовка с id действующего лица.
// Сама аутентификация - внешний компонент; движку нужен только id.
func requireActor(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Actor-Id") == "" {
		utils.SendErrorResponse(w, http.StatusUnauthorized, "missing X-Actor-Id header")
		return false
	}
	return true
}

// GetProposals обрабатывает запросы для получения списка откликов.
func (h *ProposalHandler) GetProposals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	statuses := r.URL.Query()["status"]

	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	proposals, err := h.Service.FetchProposals(ctx, limit, offset, statuses)
	if err != nil {
		respondError(w, h.Logger, err, "failed to fetch proposals")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, proposals)
}

// SubmitProposal обрабатывает запросы для подачи отклика.
func (h *ProposalHandler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var proposalReq models.ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&proposalReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proposal, err := h.Service.SubmitProposal(ctx, proposalReq)
	if err != nil {
		respondError(w, h.Logger, err, "failed to submit proposal")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, proposal)
}

// GetProposalStatus обрабатывает запросы для получения статуса отклика.
func (h *ProposalHandler) GetProposalStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	status, err := h.Service.GetProposalStatus(ctx, proposalId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to fetch proposal status")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, status)
}

// UpdateProposalStatus обрабатывает запросы для изменения статуса отклика.
func (h *ProposalHandler) UpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")
	status := r.URL.Query().Get("status")

	proposal, err := h.Service.UpdateProposalStatus(ctx, proposalId, status)
	if err != nil {
		respondError(w, h.Logger, err, "failed to update proposal status")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, proposal)
}

// GetInviteStatus обрабатывает запросы для получения статуса приглашения.
func (h *ProposalHandler) GetInviteStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	inviteId := r.PathValue("inviteId")

	status, err := h.Service.GetInviteStatus(ctx, inviteId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to fetch invite status")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, status)
}

// UpdateInviteStatus обрабатывает запросы для изменения статуса приглашения.
func (h *ProposalHandler) UpdateInviteStatus(w http.ResponseWriter, r *http.Request) {
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	inviteId := r.PathValue("inviteId")
	status := r.URL.Query().Get("status")

	invite, err := h.Service.UpdateInviteStatus(ctx, inviteId, status)
	if err != nil {
		respondError(w, h.Logger, err, "failed to update invite status")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, invite)
}

// Versions обрабатывает запросы по версиям отклика: список и создание.
func (h *ProposalHandler) Versions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	switch r.Method {
	case http.MethodGet:
		versions, err := h.Service.GetVersions(ctx, proposalId)
		if err != nil {
			respondError(w, h.Logger, err, "failed to fetch versions")
			return
		}
		utils.SendJSONResponse(w, http.StatusOK, versions)
	case http.MethodPost:
		if !requireActor(w, r) {
			return
		}
		var snapshot models.VersionSnapshot
		if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
			utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
			return
		}
		version, err := h.Service.CreateVersion(ctx, proposalId, snapshot)
		if err != nil {
			respondError(w, h.Logger, err, "failed to create version")
			return
		}
		utils.SendJSONResponse(w, http.StatusOK, version)
	default:
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET and POST are allowed")
	}
}

// GetLatestVersion обрабатывает запросы для получения последней версии отклика.
// Отклик без версий отвечает 204: отсутствие истории - допустимое состояние.
func (h *ProposalHandler) GetLatestVersion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	version, err := h.Service.GetLatestVersion(ctx, proposalId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to fetch latest version")
		return
	}
	if version == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, version)
}

// EnsureBaseline обрабатывает запросы на синтез базовой версии отклика.
func (h *ProposalHandler) EnsureBaseline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	version, err := h.Service.EnsureBaselineVersion(ctx, proposalId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to ensure baseline version")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, version)
}

// GetSummary обрабатывает запросы для получения итогов по отклику.
func (h *ProposalHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	summary, err := h.Service.GetSummary(ctx, proposalId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to build summary")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, summary)
}

// DiffVersions обрабатывает запросы для сравнения двух версий отклика.
func (h *ProposalHandler) DiffVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")
	from, errFrom := strconv.Atoi(r.URL.Query().Get("from"))
	to, errTo := strconv.Atoi(r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "from and to must be version numbers")
		return
	}

	diff, err := h.Service.DiffVersions(ctx, proposalId, from, to)
	if err != nil {
		respondError(w, h.Logger, err, "failed to diff versions")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, diff)
}
