// File: utils/cache.go
package utils

import (
	"arctech/config"
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ChangesClient carries document change notifications between instances.
var ChangesClient *redis.Client

// InitRedis connects the change-notification client.
func InitRedis() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisChangesDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis (changes): %w", err)
	}
	ChangesClient = client
	return nil
}

// GetChangesClient returns the change-notification client, or nil before InitRedis.
func GetChangesClient() *redis.Client {
	return ChangesClient
}
