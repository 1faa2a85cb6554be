package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/oi-archive/boj-collector/plugin/baekjoon"
)

// Redis keeps the submissions of a group as one JSON string and its problems
// as a hash keyed by problem id.
type Redis struct {
	Client *redis.Client
	Prefix string
}

func NewRedis(addr, password, prefix string) *Redis {
	return &Redis{
		Client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		Prefix: prefix,
	}
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

func (r *Redis) key(name string) string {
	return r.Prefix + ":" + name
}

func (r *Redis) ReadSubmissions() ([]baekjoon.Submission, error) {
	ctx := context.Background()
	subs := make([]baekjoon.Submission, 0)
	b, err := r.Client.Get(ctx, r.key("submissions")).Bytes()
	if errors.Is(err, redis.Nil) {
		return subs, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &subs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key("submissions"), err)
	}
	return subs, nil
}

func (r *Redis) WriteSubmissions(subs []baekjoon.Submission) error {
	if subs == nil {
		subs = []baekjoon.Submission{}
	}
	b, err := json.Marshal(subs)
	if err != nil {
		return err
	}
	return r.Client.Set(context.Background(), r.key("submissions"), b, 0).Err()
}

func (r *Redis) ReadKnownProblems() (map[int]baekjoon.Problem, error) {
	ctx := context.Background()
	fields, err := r.Client.HGetAll(ctx, r.key("problems")).Result()
	if err != nil {
		return nil, err
	}
	problems := make(map[int]baekjoon.Problem, len(fields))
	for field, value := range fields {
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("problem id %q in %s: %w", field, r.key("problems"), err)
		}
		var p baekjoon.Problem
		if err := json.Unmarshal([]byte(value), &p); err != nil {
			return nil, fmt.Errorf("decode problem %d: %w", id, err)
		}
		problems[id] = p
	}
	return problems, nil
}

// WriteKnownProblems replaces the whole hash in one transaction.
func (r *Redis) WriteKnownProblems(problems map[int]baekjoon.Problem) error {
	ctx := context.Background()
	values := make(map[string]interface{}, len(problems))
	for id, p := range problems {
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		values[strconv.Itoa(id)] = string(b)
	}
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key("problems"))
		if len(values) > 0 {
			pipe.HSet(ctx, r.key("problems"), values)
		}
		return nil
	})
	return err
}
