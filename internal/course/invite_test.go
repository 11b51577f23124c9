package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		assert.Len(t, code, inviteCodeLength)
		assert.Regexp(t, `^[A-Z0-9]+$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}
