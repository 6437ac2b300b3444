package sync

import (
	"fmt"
)

// EventKind - вид события задачи синхронизации.
type EventKind int

const (
	EventProgress EventKind = iota
	EventSuccess
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventSuccess:
		return "success"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event - сообщение о ходе синхронизации.
type Event struct {
	Kind    EventKind
	Message string
	Percent int
}

// Result - итог прохода синхронизации.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Task - запущенный проход синхронизации. Events закрывается по завершении.
type Task struct {
	events chan Event
	done   chan struct{}
	result Result
	err    error
}

func newTask(capacity int) *Task {
	return &Task{
		events: make(chan Event, capacity),
		done:   make(chan struct{}),
	}
}

// Events возвращает канал событий. Читать его не обязательно.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Done закрывается, когда проход завершён.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait ждёт завершения и возвращает итог.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}

// progress отправляет событие без блокировки: буфер рассчитан на все шаги прохода.
func (t *Task) progress(message string, percent int) {
	t.emit(Event{Kind: EventProgress, Message: message, Percent: percent})
}

func (t *Task) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
	}
}

func (t *Task) finish(res Result, err error) {
	if err != nil {
		t.emit(Event{Kind: EventError, Message: err.Error(), Percent: 100})
	} else {
		t.emit(Event{Kind: EventSuccess, Message: res.Message, Percent: 100})
	}
	t.result = res
	t.err = err
	close(t.events)
	close(t.done)
}
