package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenStore)(nil)

// replaceScript swaps KEYS[1] from ARGV[1] to ARGV[2] with a TTL of ARGV[3]
// milliseconds. A non-positive TTL removes the key instead.
var replaceScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("DEL", KEYS[1])
end
return 1
`)

// RefreshTokenStore keeps the current refresh token of each user under
// "<prefix>:<email>". Keys expire together with the token they hold.
type RefreshTokenStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRefreshTokenStore(client redis.UniversalClient, prefix string) *RefreshTokenStore {
	return &RefreshTokenStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RefreshTokenStore) key(email string) string {
	return s.prefix + ":" + email
}

func (s *RefreshTokenStore) Save(ctx context.Context, email string, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
			return fmt.Errorf("failed to delete expired refresh token: %w", err)
		}
		return nil
	}

	if err := s.client.Set(ctx, s.key(email), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// Replace runs the comparison and the write as one script, so concurrent
// rotations of the same token cannot both succeed.
func (s *RefreshTokenStore) Replace(ctx context.Context, email string, current, next string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now()).Milliseconds()

	swapped, err := replaceScript.Run(ctx, s.client, []string{s.key(email)}, current, next, ttl).Int()
	if err != nil {
		return fmt.Errorf("failed to replace refresh token: %w", err)
	}
	if swapped == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *RefreshTokenStore) GetByEmail(ctx context.Context, email string) (string, error) {
	token, err := s.client.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get refresh token by email: %w", err)
	}
	return token, nil
}

func (s *RefreshTokenStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check refresh token existence: %w", err)
	}
	return n > 0, nil
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
