package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_DisplayText(t *testing.T) {
	req := require.New(t)
	msg := Message{
		GroupName:      "trip",
		SenderName:     "Alice",
		SenderLanguage: "en",
		OriginalText:   "Hello",
		Translations:   map[string]string{"es": "Hola"},
		SentAt:         time.Now().UTC(),
	}

	sender := Session{UserName: "Alice", GroupName: "trip", Language: "en"}
	spanish := Session{UserName: "Bob", GroupName: "trip", Language: "es"}
	french := Session{UserName: "Chloe", GroupName: "trip", Language: "fr"}

	// The sender always reads the original, whatever the translations hold.
	req.Equal("Hello", msg.DisplayText(sender))
	req.Equal("Hola", msg.DisplayText(spanish))
	// Missing translation falls back to the original text.
	req.Equal("Hello", msg.DisplayText(french))
}

func TestMessage_DisplayText_SameLanguageReader(t *testing.T) {
	req := require.New(t)
	msg := Message{
		SenderName:     "Alice",
		SenderLanguage: "en",
		OriginalText:   "Hello",
		Translations:   map[string]string{"en": "should never be used"},
	}
	reader := Session{UserName: "Dan", Language: "en"}
	req.Equal("Hello", msg.DisplayText(reader))
}

func TestValidateJoin(t *testing.T) {
	req := require.New(t)

	sess, err := ValidateJoin(JoinRequest{UserName: "  Alice ", GroupName: "trip", Language: "PT-br"})
	req.NoError(err)
	req.Equal(Session{UserName: "Alice", GroupName: "trip", Language: "pt"}, sess)

	_, err = ValidateJoin(JoinRequest{UserName: "", GroupName: "trip", Language: "en"})
	req.Error(err)
	_, err = ValidateJoin(JoinRequest{UserName: "Alice", GroupName: "   ", Language: "en"})
	req.Error(err)
	_, err = ValidateJoin(JoinRequest{UserName: "Alice", GroupName: "trip", Language: ""})
	req.Error(err)
}

func TestValidateText(t *testing.T) {
	req := require.New(t)

	text, err := ValidateText("  hola  ")
	req.NoError(err)
	req.Equal("hola", text)

	_, err = ValidateText("   ")
	req.Error(err)
}
