package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	req := require.New(t)
	req.Equal("pt", NormalizeLanguage("pt-BR"))
	req.Equal("zh", NormalizeLanguage("zh_Hant"))
	req.Equal("es", NormalizeLanguage("  ES "))
	req.Equal("", NormalizeLanguage(""))
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)
	code := DetectLanguage("The weather has been surprisingly pleasant this entire week in the mountains")
	req.Equal("en", code)
}

func TestDetectLanguage_Unreliable(t *testing.T) {
	req := require.New(t)
	req.Equal("", DetectLanguage(""))
}
