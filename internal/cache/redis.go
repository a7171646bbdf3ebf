package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taller-backend/internal/config"
)

// Catalog collections cached under these keys are invalidated on every
// write so reads never diverge from the database.
const (
	MarcasKey     = "catalogo:marcas"
	EstadosKey    = "catalogo:estados"
	PlantillasKey = "catalogo:plantillas"
	ModelosKeyFmt = "catalogo:modelos:marca:%d"

	catalogTTL = 10 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection
func Init(cfg *config.Config) error {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client, nil when Redis is unavailable
func GetClient() *redis.Client {
	return client
}

// GetJSON loads a cached value into dst. Returns false on miss or when
// Redis is down.
func GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON stores a value under key with the catalog TTL. Best effort.
func SetJSON(ctx context.Context, key string, v interface{}) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, catalogTTL)
}

// Invalidate drops one or more cached keys. Best effort.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
