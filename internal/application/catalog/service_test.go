package catalog

import (
	"context"
	"testing"

	"github.com/keisui/shopcore/internal/domain/actor"
	domain "github.com/keisui/shopcore/internal/domain/catalog"
	"github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/infrastructure/id"
	"github.com/keisui/shopcore/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = actor.Actor{ID: "root", Role: actor.RoleAdmin}
	customer = actor.Actor{ID: "user-1", Role: actor.RoleCustomer}
)

func newService() (*Service, *memory.ProductRepository) {
	repo := memory.NewProductRepository()
	return NewService(repo, id.NewUUIDGenerator()), repo
}

func TestCreate_AdminOnly(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, customer, CreateProductInput{Name: "Mug", Price: 900, Stock: 5})
	assert.ErrorIs(t, err, order.ErrForbidden)

	p, err := svc.Create(ctx, admin, CreateProductInput{Name: "Mug", Price: 900, Stock: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, int64(900), p.Price)
	assert.Equal(t, 5, p.Stock)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, CreateProductInput{Name: "", Price: 100, Stock: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, admin, CreateProductInput{Name: "Mug", Price: -1, Stock: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, admin, CreateProductInput{Name: "Mug", Price: 100, Stock: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)
}

func TestListAndGet(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, CreateProductInput{Name: "Mug", Price: 900, Stock: 5})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
