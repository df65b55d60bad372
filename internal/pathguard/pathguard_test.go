package pathguard_test

import (
	"testing"

	"github.com/entrhq/voyager/internal/pathguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentAcceptsAlnumDashUnderscore(t *testing.T) {
	assert.NoError(t, pathguard.ValidateIdent("profile", "my-profile_1"))
}

func TestValidateIdentRejectsTraversal(t *testing.T) {
	assert.Error(t, pathguard.ValidateIdent("profile", "../etc"))
	assert.Error(t, pathguard.ValidateIdent("profile", "a/b"))
	assert.Error(t, pathguard.ValidateIdent("profile", ""))
}

func TestJoinUnderRejectsEscape(t *testing.T) {
	_, err := pathguard.JoinUnder("/data/profiles", "profile", "../../etc/passwd")
	require.Error(t, err)
}

func TestJoinUnderAcceptsValidName(t *testing.T) {
	p, err := pathguard.JoinUnder("/data/profiles", "profile", "work")
	require.NoError(t, err)
	assert.Equal(t, "/data/profiles/work", p)
}
