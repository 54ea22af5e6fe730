package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleAcceptsLegacySpellings(t *testing.T) {
	role, err := ParseRole("marchand")
	require.NoError(t, err)
	assert.Equal(t, RoleMerchant, role)

	role, err = ParseRole("client")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, role)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

// Every spelling a role can be stored under must parse back to that role,
// so queries filtering on Spellings see the same accounts ParseRole
// authorizes.
func TestRoleSpellingsRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleMerchant, RoleCustomer} {
		for _, spelling := range role.Spellings() {
			parsed, err := ParseRole(spelling)
			require.NoError(t, err, "spelling %q", spelling)
			assert.Equal(t, role, parsed, "spelling %q", spelling)
		}
	}
}
