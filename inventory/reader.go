package inventory

import (
	"context"

	"github.com/zweiadr/gw2advisor/gw2api"
)

// AccountReader is the data source for one account. *gw2api.Client
// satisfies it; tests use an in-memory fake.
//
// Every method honors context cancellation, which is how a user abort
// reaches an in-flight load.
type AccountReader interface {
	AccountName(ctx context.Context) (string, error)
	Characters(ctx context.Context) ([]string, error)
	CharacterInventory(ctx context.Context, name string) (*gw2api.CharacterInventory, error)
	MaterialStorage(ctx context.Context) ([]gw2api.ItemStack, error)
	Bank(ctx context.Context) ([]*gw2api.ItemStack, error)
	SharedSlots(ctx context.Context) ([]*gw2api.ItemStack, error)
	ItemInfo(ctx context.Context, ids []int) ([]gw2api.ItemInfo, error)
	ItemPrices(ctx context.Context, ids []int) ([]gw2api.Price, error)
	ItemPrice(ctx context.Context, id int) (*gw2api.Price, error)
	Recipes(ctx context.Context) ([]gw2api.Recipe, error)
}
