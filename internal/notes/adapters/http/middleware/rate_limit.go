package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

// RateLimitConfig задает ограничение частоты запросов одного владельца.
type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// RateLimiter хранит ограничители по владельцам и удаляет простаивающие.
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	config   RateLimitConfig

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewRateLimiter создает ограничитель и запускает фоновую очистку.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		config:   config,
		stopCh:   make(chan struct{}),
	}

	rl.wg.Add(1)
	go rl.cleanupLoop()

	return rl
}

// Reserve сообщает, разрешен ли запрос владельца, и через сколько повторить при отказе.
func (rl *RateLimiter) Reserve(ownerID string) (bool, time.Duration) {
	limiter := rl.limiter(ownerID)
	now := time.Now()
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiter(ownerID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[ownerID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)}
		rl.limiters[ownerID] = entry
	}
	entry.lastUsed = time.Now()
	return entry.limiter
}

// Cleanup удаляет ограничители, не использовавшиеся дольше интервала очистки.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.config.CleanupInterval)
	for ownerID, entry := range rl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(rl.limiters, ownerID)
		}
	}
}

func (rl *RateLimiter) cleanupLoop() {
	defer rl.wg.Done()

	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop останавливает фоновую очистку.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
	rl.wg.Wait()
}

// Len возвращает число активных ограничителей.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Handler возвращает промежуточное ПО, отвечающее 429 при превышении частоты.
// Должно стоять после NewIdentityMiddleware.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		allowed, retryAfter := rl.Reserve(OwnerID(ctx))
		if allowed {
			return ctx.Next()
		}

		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"detail": "Too many requests",
		})
	}
}
