package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)

	moderator, err := NewModerator([]string{"darn", "heck"}, '*')
	req.NoError(err)

	censored, found := moderator.Censor("well DARN it")
	req.Equal("well **** it", censored)
	req.Equal([]string{"darn"}, found)
}

func TestModerator_Censor_Punctuation_Tricks(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"darn"}, '*')
	req.NoError(err)

	censored, found := moderator.Censor("d.a.r.n you")
	req.Equal("******* you", censored)
	req.Len(found, 1)
}

func TestModerator_Clean_Text_Untouched(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"darn"}, '*')
	req.NoError(err)

	censored, found := moderator.Censor("a perfectly polite sentence")
	req.Equal("a perfectly polite sentence", censored)
	req.Empty(found)
}

func TestModerator_Disabled_Without_Words(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator(nil, '*')
	req.NoError(err)

	censored, found := moderator.Censor("darn")
	req.Equal("darn", censored)
	req.Empty(found)
}
