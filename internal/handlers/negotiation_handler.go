package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"
	"github.com/senyabanana/negotiation-service/internal/services"
	"github.com/senyabanana/negotiation-service/internal/utils"
)

// NegotiationHandler - структура для обработки HTTP-запросов по переговорам.
type NegotiationHandler struct {
	Service  *services.NegotiationService
	Bulk     *services.BulkService
	Timeline *services.TimelineService
	Logger   *log.Logger
	Timeout  time.Duration
}

// NewNegotiationHandler создает новый экземпляр NegotiationHandler.
func NewNegotiationHandler(
	service *services.NegotiationService,
	bulk *services.BulkService,
	timeline *services.TimelineService,
	logger *log.Logger,
	timeout time.Duration,
) *NegotiationHandler {
	return &NegotiationHandler{
		Service:  service,
		Bulk:     bulk,
		Timeline: timeline,
		Logger:   logger,
		Timeout:  timeout,
	}
}

// CreateSession обрабатывает запросы на открытие сессии переговоров.
func (h *NegotiationHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var sessionReq models.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&sessionReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Service.CreateSession(ctx, sessionReq)
	if err != nil {
		respondError(w, h.Logger, err, "failed to create negotiation session")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, session)
}

// respondRequest - тело запроса с ответом исполнителя.
type respondRequest struct {
	Snapshot models.VersionSnapshot `json:"snapshot"`
	Message  string                 `json:"message,omitempty"`
}

// Respond обрабатывает ответ исполнителя на запрос изменений.
func (h *NegotiationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sessionId := r.PathValue("sessionId")

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := h.Service.RecordResponse(ctx, sessionId, req.Snapshot, req.Message)
	if err != nil {
		respondError(w, h.Logger, err, "failed to record response")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, version)
}

// Resolve обрабатывает решение инициатора по ответу исполнителя.
func (h *NegotiationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sessionId := r.PathValue("sessionId")
	outcome := r.URL.Query().Get("outcome")

	session, err := h.Service.Resolve(ctx, sessionId, models.SessionOutcome(outcome))
	if err != nil {
		respondError(w, h.Logger, err, "failed to resolve session")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, session)
}

// Cancel обрабатывает отмену сессии до ответа.
func (h *NegotiationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sessionId := r.PathValue("sessionId")

	session, err := h.Service.Cancel(ctx, sessionId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to cancel session")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, session)
}

// commentRequest - тело запроса на добавление комментария.
type commentRequest struct {
	AuthorType models.AuthorType `json:"authorType"`
	Content    string            `json:"content"`
}

// Comments обрабатывает комментарии сессии: список и добавление.
func (h *NegotiationHandler) Comments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sessionId := r.PathValue("sessionId")

	switch r.Method {
	case http.MethodGet:
		comments, err := h.Service.GetComments(ctx, sessionId)
		if err != nil {
			respondError(w, h.Logger, err, "failed to fetch comments")
			return
		}
		utils.SendJSONResponse(w, http.StatusOK, comments)
	case http.MethodPost:
		if !requireActor(w, r) {
			return
		}
		var req commentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
			return
		}
		comment, err := h.Service.AddComment(ctx, sessionId, req.AuthorType, req.Content)
		if err != nil {
			respondError(w, h.Logger, err, "failed to add comment")
			return
		}
		utils.SendJSONResponse(w, http.StatusOK, comment)
	default:
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET and POST are allowed")
	}
}

// DispatchBulk обрабатывает массовую рассылку переговорного запроса.
// Пакет всегда отвечает 200: сбои по отдельным откликам перечислены в ответе.
func (h *NegotiationHandler) DispatchBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	if !requireActor(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var bulkReq models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&bulkReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Bulk.DispatchBulk(ctx, bulkReq, func(percent int) {
		h.Logger.Printf("bulk dispatch progress: %d%%", percent)
	})
	if err != nil {
		respondError(w, h.Logger, err, "failed to dispatch bulk negotiation")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, result)
}

// GetTimeline обрабатывает запросы полной хронологии переговоров по отклику.
func (h *NegotiationHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	steps, err := h.Timeline.BuildTimeline(ctx, proposalId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to build timeline")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, steps)
}

// GetVersionSteps обрабатывает запросы компактной истории оферт по отклику.
func (h *NegotiationHandler) GetVersionSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	proposalId := r.PathValue("proposalId")

	steps, err := h.Timeline.BuildVersionSteps(ctx, proposalId)
	if err != nil {
		respondError(w, h.Logger, err, "failed to build version steps")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, steps)
}
