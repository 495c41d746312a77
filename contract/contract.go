//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"whisper-bridge/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes reconciliation events for side effects (UI, logs).
// Fan-out to sinks is best-effort: no delivery or ordering guarantees.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Translator is the batched translation backend: one request covering all
// target languages. Output is not deterministic and callers must not
// retry a failed call automatically.
type Translator interface {
	Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error)
}
