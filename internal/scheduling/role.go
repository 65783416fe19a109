package scheduling

import (
	"fmt"

	"github.com/google/uuid"
)

// PartyRole identifies which side of an interview a party is on.
type PartyRole string

// PartyRole constants. AnyRole is only meaningful in queries, where it
// matches a party on either side.
const (
	RoleRecruiter PartyRole = "recruiter"
	RoleCandidate PartyRole = "candidate"
	AnyRole       PartyRole = ""
)

// ParseRole converts a string into a concrete PartyRole.
func ParseRole(s string) (PartyRole, error) {
	switch PartyRole(s) {
	case RoleRecruiter, RoleCandidate:
		return PartyRole(s), nil
	}
	return "", fmt.Errorf("unknown party role: %q", s)
}

// Valid reports whether r is recruiter or candidate.
func (r PartyRole) Valid() bool {
	return r == RoleRecruiter || r == RoleCandidate
}

// Opposite returns the other side of the interview.
func (r PartyRole) Opposite() PartyRole {
	if r == RoleRecruiter {
		return RoleCandidate
	}
	return RoleRecruiter
}

// PartyFieldFor returns the party id stored in the role's field.
// Unknown roles yield uuid.Nil so they never match a real party.
func PartyFieldFor(iv Interview, role PartyRole) uuid.UUID {
	switch role {
	case RoleRecruiter:
		return iv.RecruiterID
	case RoleCandidate:
		return iv.CandidateID
	}
	return uuid.Nil
}

// IsParty reports whether partyID holds the given role on the interview.
func IsParty(iv Interview, partyID uuid.UUID, role PartyRole) bool {
	field := PartyFieldFor(iv, role)
	return field != uuid.Nil && field == partyID
}

// OtherParty returns the id on the opposite side of role.
func OtherParty(iv Interview, role PartyRole) uuid.UUID {
	return PartyFieldFor(iv, role.Opposite())
}

// Involves reports whether partyID is on either side, or on the given side
// when role is concrete.
func Involves(iv Interview, partyID uuid.UUID, role PartyRole) bool {
	if role == AnyRole {
		return iv.RecruiterID == partyID || iv.CandidateID == partyID
	}
	return IsParty(iv, partyID, role)
}
