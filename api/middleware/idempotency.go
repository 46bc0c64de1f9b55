package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/doneduardo/storefront/api/responses"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/kvstore"
	"github.com/doneduardo/storefront/pkg/logger"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
	idempotencyKeyPrefix = "idem:"

	maxIdempotencyKeyLen     = 128
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultMaxIdempotentBody = 64 << 10
)

// IdempotencyStore keeps replay records. kvstore.Storage satisfies it.
type IdempotencyStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// IdempotencyOption tunes the middleware.
type IdempotencyOption func(*idempotencyConfig)

// WithIdempotencyTTL sets how long a recorded response is replayed.
func WithIdempotencyTTL(ttl time.Duration) IdempotencyOption {
	return func(c *idempotencyConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxIdempotentBody caps the request body read for hashing.
func WithMaxIdempotentBody(n int64) IdempotencyOption {
	return func(c *idempotencyConfig) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

type idempotencyConfig struct {
	ttl     time.Duration
	maxBody int64
	now     func() time.Time
}

type idempotencyRecord struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	RequestHash string    `json:"request_hash"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. Requests without the header pass through. Reusing a key
// with a different body is a conflict. Requests sharing a key run one at a
// time so a double submit cannot place two orders.
func Idempotency(store IdempotencyStore, scope string, logg *logger.Logger, opts ...IdempotencyOption) func(http.Handler) http.Handler {
	cfg := idempotencyConfig{ttl: defaultIdempotencyTTL, maxBody: defaultMaxIdempotentBody, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	locks := &keyLocks{held: map[string]*keyLock{}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if idempotencyKey == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > maxIdempotencyKeyLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be at most %d characters", IdempotencyHeader, maxIdempotencyKeyLen))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.maxBody))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := recordKey(scope, r, idempotencyKey)
			ctx := logg.WithField(r.Context(), "idempotency_key", key)

			unlock := locks.lock(key)
			defer unlock()

			record, err := loadRecord(ctx, store, logg, key, cfg.now())
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if record != nil {
				if record.RequestHash != requestHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key reused with different request body"))
					return
				}
				logg.Info(ctx, "idempotency.replayed")
				writeStoredResponse(w, record)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := defaultStatus(rec.status)
			if status >= http.StatusBadRequest {
				return
			}
			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				RequestHash: requestHash,
				ExpiresAt:   cfg.now().Add(cfg.ttl).UTC(),
			})
			if err != nil {
				logg.Error(ctx, "idempotency.marshal_failed", err)
				return
			}
			if err := store.Save(context.WithoutCancel(ctx), key, payload); err != nil {
				logg.Error(ctx, "idempotency.persist_failed", err)
			}
		})
	}
}

// loadRecord returns nil for a missing or expired record. Expired records are
// deleted so keys that are never reused do not pile up.
func loadRecord(ctx context.Context, store IdempotencyStore, logg *logger.Logger, key string, now time.Time) (*idempotencyRecord, error) {
	stored, err := store.Load(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	var record idempotencyRecord
	if err := json.Unmarshal(stored, &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
		if err := store.Clear(context.WithoutCancel(ctx), key); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "idempotency.expire_failed")
		}
		return nil, nil
	}
	return &record, nil
}

func recordKey(scope string, r *http.Request, idempotencyKey string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{scope, r.Method, r.URL.Path, idempotencyKey}, "|")))
	return idempotencyKeyPrefix + hex.EncodeToString(sum[:])
}

func writeStoredResponse(w http.ResponseWriter, record *idempotencyRecord) {
	w.Header().Set(ReplayedHeader, "true")
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func defaultStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// keyLocks hands out one mutex per key and forgets it once nobody waits.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]*keyLock
}

type keyLock struct {
	mu      sync.Mutex
	waiters int
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.held[key]
	if !ok {
		l = &keyLock{}
		k.held[key] = l
	}
	l.waiters++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}
