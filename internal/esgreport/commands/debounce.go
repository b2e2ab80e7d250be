package commands

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultContentDelay задержка, после которой правка текста блока становится командой.
const DefaultContentDelay = 300 * time.Millisecond

// ContentDebouncer собирает частые правки текста блока в одну команду UPDATE_BLOCK_CONTENT,
// чтобы набор текста не занимал историю посимвольно.
type ContentDebouncer struct {
	exec   *Executor
	delay  time.Duration
	locker sync.Locker

	mu         sync.Mutex
	pending    map[string]UpdateBlockContentPayload
	debouncers map[string]func(f func())
}

type DebouncerOption func(*ContentDebouncer)

// WithLocker задает блокировку владельца документа. Правка по таймеру выполняется под ней,
// Flush вызывается владельцем, который блокировку уже держит.
func WithLocker(l sync.Locker) DebouncerOption {
	return func(d *ContentDebouncer) {
		d.locker = l
	}
}

func NewContentDebouncer(exec *Executor, delay time.Duration, opts ...DebouncerOption) *ContentDebouncer {
	if delay <= 0 {
		delay = DefaultContentDelay
	}
	d := &ContentDebouncer{
		exec:       exec,
		delay:      delay,
		pending:    make(map[string]UpdateBlockContentPayload),
		debouncers: make(map[string]func(f func())),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit запоминает последнее содержимое блока и переносит выполнение на delay.
func (d *ContentDebouncer) Submit(p UpdateBlockContentPayload) {
	key := p.SectionID + "/" + p.BlockID

	d.mu.Lock()
	d.pending[key] = p
	fn, ok := d.debouncers[key]
	if !ok {
		fn = debounce.New(d.delay)
		d.debouncers[key] = fn
	}
	d.mu.Unlock()

	fn(func() { d.fire(key) })
}

// Pending количество блоков с неотправленными правками.
func (d *ContentDebouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush немедленно выполняет все отложенные правки.
func (d *ContentDebouncer) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := make([]UpdateBlockContentPayload, 0, len(keys))
	for _, k := range keys {
		batch = append(batch, d.pending[k])
		delete(d.pending, k)
	}
	d.mu.Unlock()

	for _, p := range batch {
		d.run(p)
	}
}

// fire срабатывает в горутине таймера. Правка снимается из очереди только под блокировкой
// владельца, поэтому Flush владельца и таймер не выполняют ее дважды и не теряют порядок.
func (d *ContentDebouncer) fire(key string) {
	if d.locker != nil {
		d.locker.Lock()
		defer d.locker.Unlock()
	}

	d.mu.Lock()
	p, ok := d.pending[key]
	delete(d.pending, key)
	d.mu.Unlock()

	if ok {
		d.run(p)
	}
}

func (d *ContentDebouncer) run(p UpdateBlockContentPayload) {
	cmd, err := NewUpdateBlockContent(d.exec.Store(), p)
	if err != nil {
		slog.Warn("Debounced content update rejected", "block", p.BlockID, "err", err)
		return
	}
	if res := d.exec.Execute(cmd); !res.Success {
		slog.Warn("Debounced content update failed", "block", p.BlockID, "err", res.Error)
	}
}
