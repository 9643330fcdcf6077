package main

import (
	"context"
	"fmt"

	"codemarket/internal/repo/persistent"
	"codemarket/internal/usecase"
	"codemarket/pkg/cache"
	"codemarket/pkg/config"
	"codemarket/pkg/database"
	"codemarket/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	pointRepo := persistent.NewPointRepository(db)
	ledger := usecase.NewLedgerUseCase(db, pointRepo, log)

	testUsers := []uint64{1, 2, 3, 4, 5}
	for _, userID := range testUsers {
		account, err := ledger.GetAccount(userID)
		if err != nil {
			log.Error("Failed to get account for user %d: %v", userID, err)
			continue
		}
		if account.TotalPoints.IsPositive() {
			log.Info("User %d already has points, skipping", userID)
			continue
		}

		if _, err := ledger.Recharge(userID, decimal.NewFromInt(1000), "seed recharge"); err != nil {
			log.Error("Failed to recharge user %d: %v", userID, err)
			continue
		}
		log.Info("Recharged 1000 points for user %d", userID)
	}

	testProjects := []struct {
		id       uint64
		sellerID uint64
		title    string
		price    string
	}{
		{101, 1, "Realtime chat backend", "120.00"},
		{102, 2, "E-commerce starter kit", "250.00"},
		{103, 3, "Image processing pipeline", "80.50"},
		{104, 4, "Task scheduler library", "45.00"},
		{105, 5, "Analytics dashboard", "310.00"},
	}

	ctx := context.Background()
	for _, p := range testProjects {
		key := fmt.Sprintf("project:%d", p.id)
		err := redisClient.HSet(ctx, key, map[string]interface{}{
			"seller_id": fmt.Sprintf("%d", p.sellerID),
			"title":     p.title,
			"price":     p.price,
			"status":    "published",
		}).Err()
		if err != nil {
			log.Error("Failed to seed project %d: %v", p.id, err)
			continue
		}
		log.Info("Seeded project %d: %s (%s points)", p.id, p.title, p.price)
	}

	closeRedis(redisClient, log)
	log.Info("Database seeded successfully!")
}

func closeRedis(client *redis.Client, log *logger.Logger) {
	if err := client.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}
}
