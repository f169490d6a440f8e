package revocation

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/auth"
)

const keyPrefix = "ptemanager:revoked:"

// redisStore keeps one key per revoked user, expiring with the longest-lived token it can affect.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ auth.Revocations = (*redisStore)(nil) // interface compliance check

func NewRedisStore(client *redis.Client, conf *core.Config) *redisStore {
	return &redisStore{client: client, ttl: conf.Auth.JWTExpirationDelta}
}

// Dial connects to REDIS_URL and checks the connection.
func Dial(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(conf.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing REDIS_URL")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (s *redisStore) RevokeUser(ctx context.Context, userID string, at time.Time) error {
	val := strconv.FormatInt(at.UnixNano(), 10)
	if err := s.client.Set(ctx, keyPrefix+userID, val, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "storing revocation")
	}
	return nil
}

func (s *redisStore) RevokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "reading revocation")
	}
	ns, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "parsing revocation of %s", userID)
	}
	return time.Unix(0, ns), true, nil
}
