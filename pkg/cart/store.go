// Package cart holds the shopper's cart: ordered lines, the drawer flag,
// derived totals, persistence into a key-value slot and change notification.
//
// A Store is shared by every view of one client session. Mutations never
// fail: invalid quantities clamp to removal, unknown ids are no-ops and
// storage write errors are logged while the in-memory state stays
// authoritative.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/doneduardo/storefront/pkg/kvstore"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	DefaultKey            = "cart"
	defaultPersistTimeout = 2 * time.Second
)

// Snapshot is a consistent copy of the cart taken right after a change.
type Snapshot struct {
	Event      Event
	Version    uint64
	Lines      []Line
	DrawerOpen bool
	ItemCount  int
	Total      decimal.Decimal
}

// Subscriber receives every snapshot in mutation order. It runs on the
// mutating goroutine and must not mutate the store.
type Subscriber func(Snapshot)

type subscription struct {
	id uint64
	fn Subscriber
}

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the slot key, DefaultKey otherwise.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger routes hydration and persistence warnings to logg.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// WithPersistTimeout bounds each storage call.
func WithPersistTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.persistTimeout = timeout
		}
	}
}

// WithPersistErrorHandler is called after every failed storage write.
func WithPersistErrorHandler(fn func(error)) Option {
	return func(s *Store) {
		s.onPersistError = fn
	}
}

type Store struct {
	// emitMu serializes mutate-persist-notify so subscribers and the slot see
	// changes in order. mu guards the state itself.
	emitMu sync.Mutex
	mu     sync.RWMutex

	lines      []Line
	drawerOpen bool
	version    uint64
	lastEvent  Event

	subMu   sync.Mutex
	subs    []subscription
	nextSub uint64

	storage        kvstore.Storage
	key            string
	persistTimeout time.Duration
	logg           *logger.Logger
	onPersistError func(error)
}

// New builds a Store and rehydrates it from storage. A nil storage keeps the
// cart in memory only. Missing or unreadable slots start an empty cart.
func New(ctx context.Context, storage kvstore.Storage, opts ...Option) *Store {
	s := &Store{
		storage:        storage,
		key:            DefaultKey,
		persistTimeout: defaultPersistTimeout,
		logg:           logger.Nop(),
		lastEvent:      EventHydrated,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	if s.storage == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "cart_key", s.key)

	callCtx, cancel := s.storageContext(ctx)
	defer cancel()
	data, err := s.storage.Load(callCtx, s.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate.load_failed")
		return
	}

	lines, skipped, err := decodeLines(data)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate.discarded")
		return
	}
	if skipped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "skipped_lines", skipped), "cart.hydrate.partial")
	}

	s.mu.Lock()
	s.lines = lines
	s.version++
	s.mu.Unlock()
	s.logg.Debug(s.logg.WithField(ctx, "lines", len(lines)), "cart.hydrate.restored")
}

// AddItem increments the product's line, or appends a new line of one.
// Callers are expected to have checked stock. Products without an id are
// ignored since a line without one cannot be restored from storage.
func (s *Store) AddItem(ctx context.Context, product Product) {
	if product.ID == "" {
		return
	}
	s.mutate(ctx, EventItemAdded, func() bool {
		if i := s.indexLocked(product.ID); i >= 0 {
			s.lines[i].Quantity++
			return true
		}
		s.lines = append(s.lines, Line{Product: product.clone(), Quantity: 1})
		return true
	})
}

// RemoveItem drops the product's line. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mutate(ctx, EventItemRemoved, func() bool {
		return s.removeLocked(productID)
	})
}

// SetQuantity sets the line's quantity. Quantities below one remove the line,
// the same as RemoveItem. Unknown ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	if quantity < 1 {
		s.RemoveItem(ctx, productID)
		return
	}
	s.mutate(ctx, EventQuantityChanged, func() bool {
		i := s.indexLocked(productID)
		if i < 0 || s.lines[i].Quantity == quantity {
			return false
		}
		s.lines[i].Quantity = quantity
		return true
	})
}

// Clear empties every line. The drawer flag is left as is.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, EventCleared, func() bool {
		if len(s.lines) == 0 {
			return false
		}
		s.lines = nil
		return true
	})
}

// RemoveOrdered takes the quantities of an order placed from an earlier
// snapshot out of the cart. Units added while the order was in flight stay.
// Lines the order covered fully are removed, and an emptied cart reports
// EventCleared.
func (s *Store) RemoveOrdered(ctx context.Context, ordered []Line) {
	s.mutateWith(ctx, func() (Event, bool) {
		changed := false
		for _, o := range ordered {
			i := s.indexLocked(o.Product.ID)
			if i < 0 || o.Quantity < 1 {
				continue
			}
			changed = true
			if s.lines[i].Quantity <= o.Quantity {
				s.removeLocked(o.Product.ID)
				continue
			}
			s.lines[i].Quantity -= o.Quantity
		}
		if !changed {
			return "", false
		}
		if len(s.lines) == 0 {
			return EventCleared, true
		}
		return EventQuantityChanged, true
	})
}

func (s *Store) ToggleDrawer(ctx context.Context) {
	s.mutate(ctx, EventDrawerChanged, func() bool {
		s.drawerOpen = !s.drawerOpen
		return true
	})
}

func (s *Store) OpenDrawer(ctx context.Context) {
	s.setDrawer(ctx, true)
}

func (s *Store) CloseDrawer(ctx context.Context) {
	s.setDrawer(ctx, false)
}

func (s *Store) setDrawer(ctx context.Context, open bool) {
	s.mutate(ctx, EventDrawerChanged, func() bool {
		if s.drawerOpen == open {
			return false
		}
		s.drawerOpen = open
		return true
	})
}

// Total is the sum of price times quantity, recomputed on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalOf(s.lines)
}

// ItemCount is the sum of quantities, recomputed on every call.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countOf(s.lines)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

func (s *Store) DrawerOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawerOpen
}

// Snapshot returns the current state tagged with the last applied event.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.lastEvent)
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it. The returned function is safe to call more than once.
func (s *Store) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) mutate(ctx context.Context, event Event, fn func() bool) {
	s.mutateWith(ctx, func() (Event, bool) {
		return event, fn()
	})
}

// mutateWith lets fn pick the event once it knows what changed.
func (s *Store) mutateWith(ctx context.Context, fn func() (Event, bool)) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	event, changed := fn()
	if !changed {
		s.mu.Unlock()
		return
	}
	s.version++
	s.lastEvent = event
	snap := s.snapshotLocked(event)
	s.mu.Unlock()

	if event.TouchesLines() {
		s.persist(ctx, event, snap.Lines)
	}
	s.notify(snap)
}

func (s *Store) persist(ctx context.Context, event Event, lines []Line) {
	if s.storage == nil {
		return
	}
	callCtx, cancel := s.storageContext(ctx)
	defer cancel()

	var err error
	if len(lines) == 0 {
		err = s.storage.Clear(callCtx, s.key)
	} else {
		var data []byte
		data, err = encodeLines(lines)
		if err == nil {
			err = s.storage.Save(callCtx, s.key, data)
		}
	}
	if err == nil {
		return
	}

	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"cart_key": s.key,
		"event":    event.String(),
		"error":    err.Error(),
	}), "cart.persist.failed")
	if s.onPersistError != nil {
		s.onPersistError(err)
	}
}

// storageContext keeps request values but drops cancellation so an aborted
// request cannot leave the slot behind the in-memory state.
func (s *Store) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

func (s *Store) snapshotLocked(event Event) Snapshot {
	return Snapshot{
		Event:      event,
		Version:    s.version,
		Lines:      cloneLines(s.lines),
		DrawerOpen: s.drawerOpen,
		ItemCount:  countOf(s.lines),
		Total:      totalOf(s.lines),
	}
}

func (s *Store) indexLocked(productID string) int {
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(productID string) bool {
	i := s.indexLocked(productID)
	if i < 0 {
		return false
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	return true
}

func totalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func countOf(lines []Line) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		out[i] = Line{Product: line.Product.clone(), Quantity: line.Quantity}
	}
	return out
}
