package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"
	"github.com/senyabanana/negotiation-service/internal/notify"
)

// fakeStore - размещённая в памяти реализация всех репозиториев для тестов
// сервисного слоя. Часы сдвигаются на секунду на каждое событие, чтобы
// отметки времени оставались строго монотонными.
type fakeStore struct {
	clock      time.Time
	seq        int
	proposals  map[string]*models.Proposal
	milestones map[string][]models.MilestonePayment
	versions   map[string][]models.ProposalVersion
	sessions   []*models.NegotiationSession
	comments   []models.Comment
	invites    map[string]*models.RFPInvite
	submits    map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		proposals:  make(map[string]*models.Proposal),
		milestones: make(map[string][]models.MilestonePayment),
		versions:   make(map[string][]models.ProposalVersion),
		invites:    make(map[string]*models.RFPInvite),
		submits:    make(map[string]int),
	}
}

func (f *fakeStore) now() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) nextId(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) addProposal(id string, price float64) *models.Proposal {
	proposal := &models.Proposal{
		ID:           id,
		ProjectID:    "project-1",
		RespondentID: "respondent-1",
		Price:        price,
		TimelineDays: 30,
		Status:       models.SubmittedProposal,
		ScopeText:    "scope",
		Terms:        "terms",
		CreatedAt:    f.now(),
	}
	f.proposals[id] = proposal
	return proposal
}

// --- ProposalRepository ---

func (f *fakeStore) GetProposals(_ context.Context, limit, offset int, statuses []string) ([]models.Proposal, error) {
	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var result []models.Proposal
	for _, p := range f.proposals {
		if len(wanted) == 0 || wanted[string(p.Status)] {
			result = append(result, *p)
		}
	}
	_ = limit
	_ = offset
	return result, nil
}

func (f *fakeStore) CreateProposal(_ context.Context, req models.ProposalRequest) (*models.Proposal, error) {
	proposal := &models.Proposal{
		ID:             f.nextId("proposal"),
		ProjectID:      req.ProjectID,
		RespondentID:   req.RespondentID,
		RespondentName: req.RespondentName,
		Price:          req.Price,
		TimelineDays:   req.TimelineDays,
		Status:         models.SubmittedProposal,
		ScopeText:      req.ScopeText,
		Terms:          req.Terms,
		InviteID:       req.InviteID,
		CreatedAt:      f.now(),
	}
	f.proposals[proposal.ID] = proposal
	return proposal, nil
}

func (f *fakeStore) GetProposalByID(_ context.Context, proposalId string) (*models.Proposal, error) {
	proposal, ok := f.proposals[proposalId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	copied := *proposal
	return &copied, nil
}

func (f *fakeStore) GetProposalStatus(_ context.Context, proposalId string) (models.ProposalStatus, error) {
	proposal, ok := f.proposals[proposalId]
	if !ok {
		return "", models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	return proposal.Status, nil
}

func (f *fakeStore) UpdateProposalStatus(_ context.Context, proposalId, status string) (*models.Proposal, error) {
	proposal, ok := f.proposals[proposalId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	proposal.Status = models.ProposalStatus(status)
	copied := *proposal
	return &copied, nil
}

func (f *fakeStore) MirrorVersion(_ context.Context, proposalId string, version *models.ProposalVersion) (*models.Proposal, error) {
	proposal, ok := f.proposals[proposalId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	proposal.Price = version.Price
	proposal.TimelineDays = version.TimelineDays
	proposal.ScopeText = version.ScopeText
	proposal.Terms = version.Terms
	proposal.Status = models.ApprovedProposal
	copied := *proposal
	return &copied, nil
}

func (f *fakeStore) GetMilestones(_ context.Context, proposalId string) ([]models.MilestonePayment, error) {
	return f.milestones[proposalId], nil
}

// --- VersionRepository ---

func (f *fakeStore) GetVersions(_ context.Context, proposalId string) ([]models.ProposalVersion, error) {
	return append([]models.ProposalVersion(nil), f.versions[proposalId]...), nil
}

func (f *fakeStore) GetVersionByNumber(_ context.Context, proposalId string, versionNumber int) (*models.ProposalVersion, error) {
	for _, v := range f.versions[proposalId] {
		if v.VersionNumber == versionNumber {
			copied := v
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetVersionByID(_ context.Context, versionId string) (*models.ProposalVersion, error) {
	for _, versions := range f.versions {
		for _, v := range versions {
			if v.ID == versionId {
				copied := v
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) GetLatestVersion(_ context.Context, proposalId string) (*models.ProposalVersion, error) {
	versions := f.versions[proposalId]
	if len(versions) == 0 {
		return nil, nil
	}
	copied := versions[len(versions)-1]
	return &copied, nil
}

func (f *fakeStore) CreateVersion(_ context.Context, proposalId string, snapshot models.VersionSnapshot) (*models.ProposalVersion, error) {
	version := models.ProposalVersion{
		ID:            f.nextId("version"),
		ProposalID:    proposalId,
		VersionNumber: len(f.versions[proposalId]) + 1,
		Price:         snapshot.Price,
		TimelineDays:  snapshot.TimelineDays,
		ScopeText:     snapshot.ScopeText,
		Terms:         snapshot.Terms,
		ChangeReason:  snapshot.ChangeReason,
		CreatedAt:     f.now(),
		LineItems:     append([]models.FeeLineItem(nil), snapshot.LineItems...),
	}
	f.versions[proposalId] = append(f.versions[proposalId], version)
	return &version, nil
}

func (f *fakeStore) EnsureBaselineVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error) {
	if existing, _ := f.GetVersionByNumber(ctx, proposalId, 1); existing != nil {
		return existing, nil
	}
	proposal, ok := f.proposals[proposalId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	return f.CreateVersion(ctx, proposalId, models.VersionSnapshot{
		Price:        proposal.Price,
		TimelineDays: proposal.TimelineDays,
		ScopeText:    proposal.ScopeText,
		Terms:        proposal.Terms,
		ChangeReason: models.BaselineChangeReason,
	})
}

// --- SessionRepository ---

func (f *fakeStore) CreateSession(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error) {
	// Воспроизводит частичный уникальный индекс базы.
	active, _ := f.HasActiveSession(ctx, session.ProposalID)
	if active {
		return nil, models.NewConflictError("a negotiation is already in progress")
	}
	session.ID = f.nextId("session")
	session.Status = models.AwaitingResponseSession
	session.CreatedAt = f.now()
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeStore) GetSessionByID(_ context.Context, sessionId string) (*models.NegotiationSession, error) {
	for _, s := range f.sessions {
		if s.ID == sessionId {
			return s, nil
		}
	}
	return nil, models.NewErrorResponse(http.StatusNotFound, "negotiation session not found")
}

func (f *fakeStore) GetProposalSessions(_ context.Context, proposalId string) ([]models.NegotiationSession, error) {
	var result []models.NegotiationSession
	for _, s := range f.sessions {
		if s.ProposalID == proposalId {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (f *fakeStore) HasActiveSession(_ context.Context, proposalId string) (bool, error) {
	for _, s := range f.sessions {
		if s.ProposalID == proposalId &&
			(s.Status == models.OpenSession || s.Status == models.AwaitingResponseSession) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) MarkResponded(ctx context.Context, sessionId, versionId string) (*models.NegotiationSession, error) {
	session, err := f.GetSessionByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Status != models.AwaitingResponseSession {
		return nil, models.NewConflictError("session is not awaiting a response")
	}
	session.Status = models.RespondedSession
	session.NegotiatedVersionID = versionId
	respondedAt := f.now()
	session.RespondedAt = &respondedAt
	return session, nil
}

func (f *fakeStore) MarkResolved(ctx context.Context, sessionId string, outcome models.SessionOutcome) (*models.NegotiationSession, error) {
	session, err := f.GetSessionByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Status != models.RespondedSession {
		return nil, models.NewConflictError("session has no response to resolve")
	}
	session.Status = models.ResolvedSession
	session.Outcome = outcome
	resolvedAt := f.now()
	session.ResolvedAt = &resolvedAt
	return session, nil
}

func (f *fakeStore) MarkCancelled(ctx context.Context, sessionId string) (*models.NegotiationSession, error) {
	session, err := f.GetSessionByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Status != models.OpenSession && session.Status != models.AwaitingResponseSession {
		return nil, models.NewConflictError("session can no longer be cancelled")
	}
	session.Status = models.CancelledSession
	resolvedAt := f.now()
	session.ResolvedAt = &resolvedAt
	return session, nil
}

func (f *fakeStore) AddComment(_ context.Context, sessionId string, authorType models.AuthorType, content string) (*models.Comment, error) {
	comment := models.Comment{
		ID:         f.nextId("comment"),
		SessionID:  sessionId,
		AuthorType: authorType,
		Content:    content,
		CreatedAt:  f.now(),
	}
	f.comments = append(f.comments, comment)
	return &comment, nil
}

func (f *fakeStore) GetComments(_ context.Context, sessionId string) ([]models.Comment, error) {
	var result []models.Comment
	for _, c := range f.comments {
		if c.SessionID == sessionId {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *fakeStore) GetProposalComments(ctx context.Context, proposalId string) ([]models.Comment, error) {
	sessionIds := make(map[string]bool)
	for _, s := range f.sessions {
		if s.ProposalID == proposalId {
			sessionIds[s.ID] = true
		}
	}
	var result []models.Comment
	for _, c := range f.comments {
		if sessionIds[c.SessionID] {
			result = append(result, c)
		}
	}
	return result, nil
}

// --- InviteRepository ---

func (f *fakeStore) GetInviteByID(_ context.Context, inviteId string) (*models.RFPInvite, error) {
	invite, ok := f.invites[inviteId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "invite not found")
	}
	return invite, nil
}

func (f *fakeStore) UpdateInviteStatus(_ context.Context, inviteId string, status models.InviteStatus) (*models.RFPInvite, error) {
	invite, ok := f.invites[inviteId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "invite not found")
	}
	invite.Status = status
	invite.UpdatedAt = f.now()
	return invite, nil
}

func (f *fakeStore) MarkSubmitted(ctx context.Context, inviteId string) (*models.RFPInvite, error) {
	invite, ok := f.invites[inviteId]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "invite not found")
	}
	switch invite.Status {
	case models.SubmittedInvite, models.DeclinedInvite, models.ExpiredInvite:
	default:
		invite.Status = models.SubmittedInvite
		invite.UpdatedAt = f.now()
		f.submits[inviteId]++
	}
	return invite, nil
}

// --- Notifier ---

// fakeNotifier потокобезопасен: Dispatch вызывает Notify из горутины.
type fakeNotifier struct {
	mu     sync.Mutex
	fail   bool
	events []notify.Event
}

func (n *fakeNotifier) Notify(event notify.Event, _ notify.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	if n.fail {
		return errors.New("notification channel unreachable")
	}
	return nil
}
