package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notify-service/internal/database"
)

// PresenceService tracks which users currently hold a live WebSocket session.
// It is bookkeeping only: fan-out never consults it.
type PresenceService struct {
	client *database.RedisClient
}

func NewPresenceService(client *database.RedisClient) *PresenceService {
	return &PresenceService{client: client}
}

func (p *PresenceService) SetUserOnline(ctx context.Context, username string) error {
	pipe := p.client.GetClient().Pipeline()

	// Add to online users set
	pipe.SAdd(ctx, "online_users", username)

	// Set user status hash
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", username), map[string]interface{}{
		"status":     "online",
		"last_seen":  time.Now().Unix(),
		"updated_at": time.Now().Unix(),
	})

	// Status expires unless refreshed by a reconnect
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", username), 5*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set user online", "user", username, "error", err)
		return err
	}

	slog.Debug("User set to online", "user", username)
	return nil
}

func (p *PresenceService) SetUserOffline(ctx context.Context, username string) error {
	pipe := p.client.GetClient().Pipeline()

	// Remove from online users set
	pipe.SRem(ctx, "online_users", username)

	// Update user status
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", username), map[string]interface{}{
		"status":     "offline",
		"last_seen":  time.Now().Unix(),
		"updated_at": time.Now().Unix(),
	})

	// Keep offline status around longer for "last seen" lookups
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", username), 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set user offline", "user", username, "error", err)
		return err
	}

	slog.Debug("User set to offline", "user", username)
	return nil
}

func (p *PresenceService) IsUserOnline(ctx context.Context, username string) (bool, error) {
	return p.client.GetClient().SIsMember(ctx, "online_users", username).Result()
}

func (p *PresenceService) OnlineUsers(ctx context.Context) ([]string, error) {
	return p.client.GetClient().SMembers(ctx, "online_users").Result()
}
