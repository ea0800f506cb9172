package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"system", "user", "assistant", "tool"} {
		r, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}

	_, err := ParseRole("moderator")
	assert.Error(t, err)
	invErr, ok := err.(*InvalidRoleError)
	assert.True(t, ok)
	assert.Contains(t, invErr.Error(), "moderator")
}

func TestSummaryTurn(t *testing.T) {
	st := NewSummaryTurn("user likes jazz")
	assert.Equal(t, RoleSystem, st.Role)
	assert.True(t, st.IsSummary())
	assert.True(t, st.IsSynthetic())
	assert.Equal(t, SummaryPrefix+"user likes jazz", st.Content)

	// A plain system turn is not a summary even though roles match.
	anchor := Turn{Role: RoleSystem, Content: "You are a helpful assistant.", Seq: SyntheticSeq}
	assert.False(t, anchor.IsSummary())
	assert.True(t, anchor.IsSynthetic())

	appended := Turn{Role: RoleAssistant, Content: "hello", Seq: 0}
	assert.False(t, appended.IsSynthetic())
}

func TestNewIDUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
