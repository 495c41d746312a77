package errors

import "fmt"

var (
	ErrStoreUnavailable       = fmt.Errorf("record store unavailable")
	ErrTranslationUnavailable = fmt.Errorf("translation backend unavailable")
	ErrRecordNotFound         = fmt.Errorf("record not found")
	ErrSessionClosed          = fmt.Errorf("no active session")
	ErrEmptyMessage           = fmt.Errorf("empty message text")
	ErrWorkerPanic            = fmt.Errorf("worker panic")
)
