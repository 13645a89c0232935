package services

import (
	"context"
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNegotiationService(store *fakeStore) (*NegotiationService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	logger := log.New(io.Discard, "", 0)
	return NewNegotiationService(store, store, store, notifier, logger), notifier
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestCreateSession_SynthesizesBaselineAndMovesProposalToNegotiating(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{
		ProposalID:             "p1",
		TargetReductionPercent: floatPtr(15),
		Message:                "please sharpen the price",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AwaitingResponseSession, session.Status)
	assert.NotEmpty(t, session.BaselineVersionID)

	baseline, err := store.GetVersionByNumber(ctx, "p1", 1)
	require.NoError(t, err)
	require.NotNil(t, baseline)
	assert.Equal(t, models.BaselineChangeReason, baseline.ChangeReason)
	assert.Equal(t, 100000.0, baseline.Price)

	assert.Equal(t, models.NegotiatingProposal, store.proposals["p1"].Status)
}

func TestCreateSession_ConflictWhenNegotiationInProgress(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(90000)})
	require.NoError(t, err)

	_, err = svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(80000)})
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
	assert.Contains(t, err.Error(), "already in progress")
	assert.Len(t, store.sessions, 1)
}

func TestCreateSession_RejectsTwoTargets(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)

	_, err := svc.CreateSession(context.Background(), models.SessionRequest{
		ProposalID:             "p1",
		TargetTotal:            floatPtr(90000),
		TargetReductionPercent: floatPtr(10),
	})
	require.Error(t, err)
	errorResponse, ok := err.(*models.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, errorResponse.StatusCode)
}

func TestCreateSession_MilestoneDraftsMustTotal100(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	store.milestones["p1"] = []models.MilestonePayment{
		{ID: "m1", ProposalID: "p1", Description: "kickoff", Percentage: 50},
		{ID: "m2", ProposalID: "p1", Description: "delivery", Percentage: 50},
	}
	svc, _ := newNegotiationService(store)

	// Черновик уводит сумму к 97% - сессия не должна быть сохранена.
	_, err := svc.CreateSession(context.Background(), models.SessionRequest{
		ProposalID: "p1",
		MilestoneDrafts: []models.MilestoneAdjustmentDraft{
			{MilestoneID: "m2", OriginalPercentage: 50, TargetPercentage: 47},
		},
	})
	require.Error(t, err)
	errorResponse, ok := err.(*models.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, errorResponse.StatusCode)
	assert.Contains(t, errorResponse.Message, "97.00")
	assert.Empty(t, store.sessions)
	assert.Empty(t, store.versions["p1"])
}

func TestCreateSession_PersistsValidMilestoneAsks(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	store.milestones["p1"] = []models.MilestonePayment{
		{ID: "m1", ProposalID: "p1", Description: "kickoff", Percentage: 40},
		{ID: "m2", ProposalID: "p1", Description: "delivery", Percentage: 60},
	}
	svc, _ := newNegotiationService(store)

	session, err := svc.CreateSession(context.Background(), models.SessionRequest{
		ProposalID: "p1",
		MilestoneDrafts: []models.MilestoneAdjustmentDraft{
			{MilestoneID: "m1", TargetPercentage: 30},
			{MilestoneID: "m2", TargetPercentage: 70},
		},
	})
	require.NoError(t, err)
	require.Len(t, session.MilestoneAsks, 2)
	assert.Equal(t, 40.0, session.MilestoneAsks[0].OriginalPercentage)
	assert.Equal(t, 30.0, session.MilestoneAsks[0].TargetPercentage)
}

func TestRecordResponse_CreatesVersionAndStampsSession(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)

	version, err := svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000, TimelineDays: 28}, "we can meet that")
	require.NoError(t, err)
	assert.Equal(t, 2, version.VersionNumber)

	updated, err := store.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RespondedSession, updated.Status)
	assert.Equal(t, version.ID, updated.NegotiatedVersionID)
	require.NotNil(t, updated.RespondedAt)

	comments, err := store.GetComments(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, models.RespondentAuthor, comments[0].AuthorType)
}

func TestRecordResponse_RejectedForTerminalSession(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, session.ID)
	require.NoError(t, err)

	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000}, "")
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
}

func TestResolve_AcceptedMirrorsVersionOntoProposal(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{
		ProposalID:             "p1",
		TargetReductionPercent: floatPtr(15),
	})
	require.NoError(t, err)

	// Ответ точно в цель: 100000 * (1 - 15/100).
	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000, TimelineDays: 25, ScopeText: "trimmed scope"}, "")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, session.ID, models.AcceptedOutcome)
	require.NoError(t, err)
	assert.Equal(t, models.ResolvedSession, resolved.Status)
	assert.Equal(t, models.AcceptedOutcome, resolved.Outcome)
	require.NotNil(t, resolved.ResolvedAt)

	proposal := store.proposals["p1"]
	assert.Equal(t, 85000.0, proposal.Price)
	assert.Equal(t, 25, proposal.TimelineDays)
	assert.Equal(t, "trimmed scope", proposal.ScopeText)
	assert.Equal(t, models.ApprovedProposal, proposal.Status)
}

func TestResolve_AcceptedMirrorsNegotiatedVersionNotLatest(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)
	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000}, "")
	require.NoError(t, err)

	// Версия, записанная между ответом и решением, на принятие не влияет.
	_, err = store.CreateVersion(ctx, "p1", models.VersionSnapshot{Price: 99999})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, session.ID, models.AcceptedOutcome)
	require.NoError(t, err)
	assert.Equal(t, 85000.0, store.proposals["p1"].Price)
}

func TestResolve_RejectedKeepsPriceAndRejectsProposal(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)
	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 90000}, "")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, session.ID, models.RejectedOutcome)
	require.NoError(t, err)
	assert.Equal(t, models.RejectedOutcome, resolved.Outcome)
	assert.Equal(t, 100000.0, store.proposals["p1"].Price)
	assert.Equal(t, models.RejectedProposal, store.proposals["p1"].Status)
}

func TestResolve_RequiresRespondedSession(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, session.ID, models.AcceptedOutcome)
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
}

func TestCancel_AllowedOnlyBeforeResponse(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)
	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000}, "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, session.ID)
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
}

func TestAddComment_ValidatesAuthorType(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, session.ID, "someone", "hello")
	require.Error(t, err)

	comment, err := svc.AddComment(ctx, session.ID, models.InitiatorAuthor, "hello")
	require.NoError(t, err)
	assert.Equal(t, models.InitiatorAuthor, comment.AuthorType)
}

func TestStoreRejectsTransitionsFromWrongStatus(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, _ := newNegotiationService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)

	// Запись в хранилище мимо сервиса упирается в статусное условие UPDATE.
	_, err = store.MarkResolved(ctx, session.ID, models.AcceptedOutcome)
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))

	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000}, "")
	require.NoError(t, err)

	_, err = store.MarkCancelled(ctx, session.ID)
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))

	_, err = store.MarkResponded(ctx, session.ID, "version-x")
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
}

func TestNotifierFailureDoesNotAffectTransitions(t *testing.T) {
	store := newFakeStore()
	store.addProposal("p1", 100000)
	svc, notifier := newNegotiationService(store)
	notifier.fail = true
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.SessionRequest{ProposalID: "p1", TargetTotal: floatPtr(85000)})
	require.NoError(t, err)
	_, err = svc.RecordResponse(ctx, session.ID, models.VersionSnapshot{Price: 85000}, "")
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, session.ID, models.AcceptedOutcome)
	require.NoError(t, err)
}
