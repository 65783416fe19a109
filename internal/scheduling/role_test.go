package scheduling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("recruiter")
	require.NoError(t, err)
	assert.Equal(t, RoleRecruiter, r)

	r, err = ParseRole("candidate")
	require.NoError(t, err)
	assert.Equal(t, RoleCandidate, r)

	_, err = ParseRole("admin")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestPartyFieldFor(t *testing.T) {
	iv := Interview{RecruiterID: uuid.New(), CandidateID: uuid.New()}

	assert.Equal(t, iv.RecruiterID, PartyFieldFor(iv, RoleRecruiter))
	assert.Equal(t, iv.CandidateID, PartyFieldFor(iv, RoleCandidate))
	assert.Equal(t, uuid.Nil, PartyFieldFor(iv, PartyRole("hiring-manager")))

	assert.Equal(t, iv.CandidateID, OtherParty(iv, RoleRecruiter))
	assert.Equal(t, iv.RecruiterID, OtherParty(iv, RoleCandidate))
}

func TestInvolves(t *testing.T) {
	iv := Interview{RecruiterID: uuid.New(), CandidateID: uuid.New()}

	assert.True(t, Involves(iv, iv.RecruiterID, AnyRole))
	assert.True(t, Involves(iv, iv.CandidateID, AnyRole))
	assert.True(t, Involves(iv, iv.CandidateID, RoleCandidate))
	assert.False(t, Involves(iv, iv.CandidateID, RoleRecruiter))
	assert.False(t, Involves(iv, uuid.New(), AnyRole))

	// a nil-id query never matches an unset party field
	assert.False(t, IsParty(Interview{}, uuid.Nil, RoleRecruiter))
}
