package client

import (
	gosync "sync"

	"storekeeper/internal/domain/entity"
)

// Op - вид изменения, вызвавшего инвалидацию.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Invalidation сообщает, что закэшированные списки типа устарели.
type Invalidation struct {
	Type entity.Type
	ID   string
	Op   Op
}

// Invalidations - шина сигналов для кэшей товаров и контрагентов.
// Отправка неблокирующая: медленный подписчик пропускает сигнал.
type Invalidations struct {
	mu   gosync.Mutex
	next int
	subs map[int]chan Invalidation
}

func NewInvalidations() *Invalidations {
	return &Invalidations{subs: make(map[int]chan Invalidation)}
}

// Subscribe возвращает канал сигналов и функцию отписки, закрывающую канал.
func (b *Invalidations) Subscribe(buffer int) (<-chan Invalidation, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Invalidation, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once gosync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Invalidations) publish(ev Invalidation) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// invalidates - типы, изменения которых сбрасывают кэши.
func invalidates(t entity.Type) bool {
	return t == entity.Products || t == entity.Contacts
}
