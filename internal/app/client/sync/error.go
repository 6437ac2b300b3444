package sync

import (
	"errors"
	"fmt"

	"storekeeper/internal/domain/entity"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrPendingChanges = errors.New("local records are pending upload")
)

// UploadError - отказ сервера принять запись. Отправка типа прерывается на ней.
type UploadError struct {
	Type  entity.Type
	Label string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("не удалось отправить %s %q: %v", e.Type, e.Label, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PendingError называет тип, в котором остались неотправленные записи.
type PendingError struct {
	Type  entity.Type
	Count int
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("%s: %d записей не отправлено на сервер", e.Type, e.Count)
}

func (e *PendingError) Unwrap() error {
	return ErrPendingChanges
}
