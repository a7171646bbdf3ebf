package wizard

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"taller-backend/internal/models"
	"taller-backend/internal/timeutil"
)

const draftKeyPrefix = "reparacion:borrador:"

// RedisDraftStore keeps snapshots in Redis with the draft TTL applied
// server-side, so abandoned sessions clean themselves up.
type RedisDraftStore struct {
	client *redis.Client
}

func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

func (s *RedisDraftStore) Load(ctx context.Context, key string) (*models.DraftSnapshot, error) {
	raw, err := s.client.Get(ctx, draftKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap models.DraftSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Corrupt draft data counts as no draft
		log.Printf("[Draft] Discarding corrupt draft %s: %v", key, err)
		s.client.Del(ctx, draftKeyPrefix+key)
		return nil, nil
	}
	return &snap, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, key string, snap *models.DraftSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKeyPrefix+key, raw, DraftTTL).Err()
}

func (s *RedisDraftStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, draftKeyPrefix+key).Err()
}

func (s *RedisDraftStore) IsExpired(snap *models.DraftSnapshot) bool {
	return Expired(snap, timeutil.Now())
}
