package repositories

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const visitKeyPrefix = "visits:draft:"

// VisitRepository counts reads of a draft. Counts live in Redis so every
// replica sees the same number.
type VisitRepository interface {
	Increment(ctx context.Context, draftID string) (int64, error)
	Counts(ctx context.Context, draftIDs ...string) (map[string]int64, error)
}

type visitRepository struct {
	client *redis.Client
}

// NewVisitRepository returns a no-op counter when client is nil.
func NewVisitRepository(client *redis.Client) VisitRepository {
	if client == nil {
		return noopVisitRepository{}
	}
	return &visitRepository{client: client}
}

func (r *visitRepository) Increment(ctx context.Context, draftID string) (int64, error) {
	n, err := r.client.Incr(ctx, visitKeyPrefix+draftID).Result()
	if err != nil {
		return 0, translateError(ctx, "increment visits", err)
	}
	return n, nil
}

func (r *visitRepository) Counts(ctx context.Context, draftIDs ...string) (map[string]int64, error) {
	counts := make(map[string]int64, len(draftIDs))
	if len(draftIDs) == 0 {
		return counts, nil
	}

	keys := make([]string, len(draftIDs))
	for i, id := range draftIDs {
		keys[i] = visitKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, translateError(ctx, "read visits", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		counts[draftIDs[i]] = n
	}
	return counts, nil
}

type noopVisitRepository struct{}

func (noopVisitRepository) Increment(context.Context, string) (int64, error) {
	return 0, nil
}

func (noopVisitRepository) Counts(_ context.Context, draftIDs ...string) (map[string]int64, error) {
	return make(map[string]int64, len(draftIDs)), nil
}
