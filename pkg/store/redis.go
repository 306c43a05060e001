package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps user records as one Redis hash per identity.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(identity string) string {
	return fmt.Sprintf("user:%s", identity)
}

func (s *RedisStore) FindOrCreateUser(ctx context.Context, identity string) (*UserRecord, error) {
	key := s.key(identity)

	created, err := s.client.HSetNX(ctx, key, "identity", identity).Result()
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.client.HSet(ctx, key,
			"nickname", "",
			"wins", 0,
			"losses", 0,
			"bean", DefaultBean,
		).Err(); err != nil {
			return nil, err
		}
	}

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	user := &UserRecord{
		Identity: identity,
		Nickname: fields["nickname"],
	}
	user.Wins, _ = strconv.Atoi(fields["wins"])
	user.Losses, _ = strconv.Atoi(fields["losses"])
	user.Bean, _ = strconv.ParseInt(fields["bean"], 10, 64)
	return user, nil
}

func (s *RedisStore) UpdateStats(ctx context.Context, identity string, won bool) error {
	field := "losses"
	if won {
		field = "wins"
	}
	return s.client.HIncrBy(ctx, s.key(identity), field, 1).Err()
}

func (s *RedisStore) UpdateBalance(ctx context.Context, identity string, delta int64) error {
	return s.client.HIncrBy(ctx, s.key(identity), "bean", delta).Err()
}

func (s *RedisStore) UpdateNickname(ctx context.Context, identity, nickname string) error {
	return s.client.HSet(ctx, s.key(identity), "nickname", nickname).Err()
}
