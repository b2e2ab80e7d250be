// Линейная история отмены и повтора на снимках состояния.
//
// Основные возможности:
//   - Стек прошлых снимков ограничен емкостью, старейшие снимки вытесняются.
//   - Любое новое изменение очищает стек повтора.
//   - Снимки копируются функцией клонирования, история не разделяет данные с текущим состоянием.
package history

import "sync"

// DefaultCapacity емкость стека прошлых состояний по умолчанию.
const DefaultCapacity = 50

// Manager хранит снимки past (от старых к новым) и future (ближайший повтор первым).
type Manager[T any] struct {
	mu       sync.Mutex
	past     []T
	future   []T
	capacity int
	clone    func(T) T
}

// NewManager создает историю. capacity <= 0 означает DefaultCapacity.
func NewManager[T any](capacity int, clone func(T) T) *Manager[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Manager[T]{capacity: capacity, clone: clone}
}

func (m *Manager[T]) Capacity() int {
	return m.capacity
}

// Push сохраняет снимок состояния перед изменением и очищает future.
func (m *Manager[T]) Push(current T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.past = m.appendPast(current)
	m.future = nil
}

// Undo возвращает предыдущее состояние, текущее уходит в начало future.
// false, если отменять нечего.
func (m *Manager[T]) Undo(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.past) == 0 {
		return zero, false
	}
	prev := m.past[len(m.past)-1]
	m.past[len(m.past)-1] = zero
	m.past = m.past[:len(m.past)-1]

	future := make([]T, 0, len(m.future)+1)
	future = append(future, m.clone(current))
	m.future = append(future, m.future...)
	return prev, true
}

// Redo возвращает следующее состояние, текущее уходит в конец past.
// false, если повторять нечего.
func (m *Manager[T]) Redo(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.future) == 0 {
		return zero, false
	}
	next := m.future[0]
	m.future = m.future[1:]
	m.past = m.appendPast(current)
	return next, true
}

func (m *Manager[T]) appendPast(current T) []T {
	past := append(m.past, m.clone(current))
	if over := len(past) - m.capacity; over > 0 {
		past = append([]T(nil), past[over:]...)
	}
	return past
}

func (m *Manager[T]) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

func (m *Manager[T]) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// Len размеры стеков past и future.
func (m *Manager[T]) Len() (past int, future int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past), len(m.future)
}

func (m *Manager[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = nil
	m.future = nil
}
