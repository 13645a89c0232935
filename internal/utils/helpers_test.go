package utils

import (
	"testing"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimitOffset(t *testing.T) {
	limit, offset, err := ParseLimitOffset("", "")
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 0, offset)

	limit, offset, err = ParseLimitOffset("20", "40")
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	_, _, err = ParseLimitOffset("0", "")
	require.Error(t, err)

	_, _, err = ParseLimitOffset("51", "")
	require.Error(t, err)

	_, _, err = ParseLimitOffset("ten", "")
	require.Error(t, err)

	_, _, err = ParseLimitOffset("", "-1")
	require.Error(t, err)
}

func TestContainsProposalStatus(t *testing.T) {
	transitions := models.AllowedProposalTransitions[models.SubmittedProposal]
	assert.True(t, ContainsProposalStatus(transitions, models.NegotiatingProposal))
	assert.False(t, ContainsProposalStatus(transitions, models.SubmittedProposal))
}

func TestContainsSessionStatus(t *testing.T) {
	transitions := models.AllowedSessionTransitions[models.AwaitingResponseSession]
	assert.True(t, ContainsSessionStatus(transitions, models.RespondedSession))
	assert.True(t, ContainsSessionStatus(transitions, models.CancelledSession))
	assert.False(t, ContainsSessionStatus(transitions, models.ResolvedSession))

	terminal := models.AllowedSessionTransitions[models.ResolvedSession]
	assert.False(t, ContainsSessionStatus(terminal, models.OpenSession))
}

func TestContainsInviteStatus(t *testing.T) {
	transitions := models.AllowedInviteTransitions[models.OpenedInvite]
	assert.True(t, ContainsInviteStatus(transitions, models.SubmittedInvite))
	assert.False(t, ContainsInviteStatus(transitions, models.PendingInvite))
}
