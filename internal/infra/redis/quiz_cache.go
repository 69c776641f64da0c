package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
)

// QuizCache caches the published quiz payload in Redis, keyed by slug,
// and falls back to the wrapped reader on a miss. Misses for the same
// slug are collapsed through singleflight so a cold cache produces one
// store read, not one per request.
type QuizCache struct {
	client *redis.Client
	source app.PublishedQuizReader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, source app.PublishedQuizReader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) PublishedQuizBySlug(ctx context.Context, slug string) (domain.QuizPost, error) {
	key := c.key(slug)

	if quiz, ok := c.fromCache(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(slug, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if quiz, ok := c.fromCache(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := c.source.PublishedQuizBySlug(ctx, slug)
		if err != nil {
			return domain.QuizPost{}, err
		}

		if encoded, err := json.Marshal(quiz); err == nil {
			_ = c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.QuizPost{}, err
	}
	return result.(domain.QuizPost), nil
}

// Invalidate drops the cached payload for a slug. Called after publish,
// unpublish and edits so stale quiz content is bounded by the TTL only
// for untouched quizzes.
func (c *QuizCache) Invalidate(ctx context.Context, slug string) {
	if slug == "" {
		return
	}
	_ = c.client.Del(ctx, c.key(slug)).Err()
}

func (c *QuizCache) fromCache(ctx context.Context, key string) (domain.QuizPost, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.QuizPost{}, false
	}
	var quiz domain.QuizPost
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.QuizPost{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(slug string) string {
	return "quiz:published:" + slug
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
