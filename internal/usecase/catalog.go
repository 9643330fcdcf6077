package usecase

import (
	"context"
	"fmt"
	"strconv"

	"codemarket/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Project is the slice of the catalog the order flow needs: who sells it, what
// it costs, and whether it can be bought right now. The price is read once at
// order creation and copied onto the order.
type Project struct {
	ID          uint64
	SellerID    uint64
	Title       string
	Price       decimal.Decimal
	Purchasable bool
}

// ProjectCatalog supplies project facts from the catalog service. The order
// core trusts what it returns and never re-validates.
type ProjectCatalog interface {
	GetProject(ctx context.Context, projectID uint64) (*Project, error)
}

// redisProjectCatalog reads the project hashes the catalog service maintains
// (project:<id> -> seller_id, title, price, status).
type redisProjectCatalog struct {
	client *redis.Client
}

func NewRedisProjectCatalog(client *redis.Client) ProjectCatalog {
	return &redisProjectCatalog{client: client}
}

func (c *redisProjectCatalog) GetProject(ctx context.Context, projectID uint64) (*Project, error) {
	key := fmt.Sprintf("project:%d", projectID)
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read project %d: %w", projectID, err)
	}
	if len(fields) == 0 {
		return nil, entity.ErrProjectNotFound
	}

	sellerID, err := strconv.ParseUint(fields["seller_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("project %d has invalid seller_id %q: %w", projectID, fields["seller_id"], err)
	}

	price, err := decimal.NewFromString(fields["price"])
	if err != nil {
		return nil, fmt.Errorf("project %d has invalid price %q: %w", projectID, fields["price"], err)
	}

	return &Project{
		ID:          projectID,
		SellerID:    sellerID,
		Title:       fields["title"],
		Price:       price,
		Purchasable: fields["status"] == "published",
	}, nil
}
