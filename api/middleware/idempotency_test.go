package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/doneduardo/storefront/pkg/kvstore"
)

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("redis down")
}

func (failingStore) Save(context.Context, string, []byte) error {
	return nil
}

func (failingStore) Clear(context.Context, string) error {
	return nil
}

// clearCounter records which keys were deleted.
type clearCounter struct {
	*kvstore.Memory
	cleared []string
}

func (c *clearCounter) Clear(ctx context.Context, key string) error {
	c.cleared = append(c.cleared, key)
	return c.Memory.Clear(ctx, key)
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":{"echo":` + string(body) + `}}`))
	})
}

func checkoutRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return req
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	calls := 0
	h := Idempotency(kvstore.NewMemory(), "local", nil)(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, checkoutRequest("abc", `1`))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, checkoutRequest("abc", `1`))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed status 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected stored content type")
	}
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	calls := 0
	h := Idempotency(kvstore.NewMemory(), "local", nil)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("abc", `2`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	calls := 0
	h := Idempotency(kvstore.NewMemory(), "local", nil)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("", `1`))
	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("", `1`))

	if calls != 2 {
		t.Fatalf("expected two executions, got %d", calls)
	}
}

func TestIdempotencyDoesNotRecordFailures(t *testing.T) {
	calls := 0
	h := Idempotency(kvstore.NewMemory(), "local", nil)(countingHandler(&calls, http.StatusServiceUnavailable))

	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))

	if calls != 2 {
		t.Fatalf("failed attempts must be retryable, got %d calls", calls)
	}
}

func TestIdempotencyScopesKeys(t *testing.T) {
	calls := 0
	store := kvstore.NewMemory()
	next := countingHandler(&calls, http.StatusCreated)

	Idempotency(store, "session-a", nil)(next).ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	Idempotency(store, "session-b", nil)(next).ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))

	if calls != 2 {
		t.Fatalf("expected separate scopes, got %d calls", calls)
	}
}

func TestIdempotencyStoreFailureIsDependencyError(t *testing.T) {
	calls := 0
	h := Idempotency(failingStore{}, "local", nil)(countingHandler(&calls, http.StatusCreated))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("abc", `1`))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run when the store is unavailable")
	}
}

func TestIdempotencyRejectsOversizedInput(t *testing.T) {
	calls := 0
	h := Idempotency(kvstore.NewMemory(), "local", nil, WithMaxIdempotentBody(4))(countingHandler(&calls, http.StatusCreated))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest(strings.Repeat("k", maxIdempotencyKeyLen+1), `1`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a long key, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("abc", `"too long"`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a large body, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run for rejected input")
	}
}

func TestIdempotencyExpiredRecordRunsAgain(t *testing.T) {
	calls := 0
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func(c *idempotencyConfig) { c.now = func() time.Time { return now } }
	h := Idempotency(kvstore.NewMemory(), "local", nil, WithIdempotencyTTL(time.Hour), clock)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	now = now.Add(30 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	if calls != 1 {
		t.Fatalf("expected replay within ttl, got %d calls", calls)
	}

	now = now.Add(time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest("abc", `1`))
	if calls != 2 {
		t.Fatalf("expected a fresh run after expiry, got %d calls", calls)
	}
	if rec.Header().Get(ReplayedHeader) != "" {
		t.Fatalf("fresh run must not be marked as replayed")
	}
}

func TestIdempotencyDeletesExpiredRecords(t *testing.T) {
	calls := 0
	status := http.StatusCreated
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func(c *idempotencyConfig) { c.now = func() time.Time { return now } }
	store := &clearCounter{Memory: kvstore.NewMemory()}
	h := Idempotency(store, "local", nil, WithIdempotencyTTL(time.Minute), clock)(next)

	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	if len(store.cleared) != 0 {
		t.Fatalf("fresh records must not be deleted")
	}

	now = now.Add(2 * time.Minute)
	status = http.StatusServiceUnavailable
	h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("abc", `1`))
	if calls != 2 || len(store.cleared) != 1 {
		t.Fatalf("expected the expired record deleted and the handler rerun, got %d calls %v", calls, store.cleared)
	}
	if _, err := store.Load(context.Background(), store.cleared[0]); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected no record left after a failed rerun, got %v", err)
	}
}

func TestIdempotencySerializesConcurrentDuplicates(t *testing.T) {
	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})
	h := Idempotency(kvstore.NewMemory(), "local", nil)(next)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ServeHTTP(httptest.NewRecorder(), checkoutRequest("double-click", `{"a":1}`))
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single execution, got %d", got)
	}
}

func TestKeyLocksForgetReleasedKeys(t *testing.T) {
	locks := &keyLocks{held: map[string]*keyLock{}}
	unlock := locks.lock("a")
	if len(locks.held) != 1 {
		t.Fatalf("expected one held key")
	}
	unlock()
	if len(locks.held) != 0 {
		t.Fatalf("expected released key to be dropped")
	}
}
