package domain

import "time"

// Message represents an immutable chat event. Translations may be
// incomplete; readers fall back to the original text.
type Message struct {
	ID             string
	GroupName      string
	SenderName     string
	SenderLanguage string
	OriginalText   string
	Translations   map[string]string
	SentAt         time.Time
}

// DisplayText picks the text a viewer should read. The sender, and any
// viewer sharing the sender's language, always sees the original.
func (m Message) DisplayText(viewer Session) string {
	if viewer.UserName == m.SenderName || viewer.Language == m.SenderLanguage {
		return m.OriginalText
	}
	if translated, ok := m.Translations[viewer.Language]; ok && translated != "" {
		return translated
	}
	return m.OriginalText
}

// Own reports whether the viewer authored the message.
func (m Message) Own(viewer Session) bool {
	return viewer.UserName == m.SenderName
}
