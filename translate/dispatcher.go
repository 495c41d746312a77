// Package translate fans a message body out to translations for a set of
// target languages.
package translate

import (
	"context"
	"log/slog"

	"whisper-bridge/contract"
)

// Dispatcher wraps the translation backend with the delivery policy:
// a message must remain sendable even when translation is fully degraded.
type Dispatcher struct {
	backend contract.Translator
	log     *slog.Logger
}

func NewDispatcher(backend contract.Translator, log *slog.Logger) *Dispatcher {
	return &Dispatcher{backend: backend, log: log}
}

// Dispatch issues one batched request covering all target languages and
// returns whatever mapping the backend produced. An empty target set
// short-circuits without calling the backend. Backend failure yields an
// empty mapping, never an error, and is not retried: a retry would be a
// new, independent call that may succeed partially.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, targetLanguages []string) map[string]string {
	if len(targetLanguages) == 0 {
		return map[string]string{}
	}

	translations, err := d.backend.Translate(ctx, text, targetLanguages)
	if err != nil {
		d.log.Warn("Translation degraded, delivering original only",
			"targets", targetLanguages, "err", err)
		return map[string]string{}
	}
	if translations == nil {
		return map[string]string{}
	}
	return translations
}
