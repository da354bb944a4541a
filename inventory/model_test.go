package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zweiadr/gw2advisor/gw2api"
	"github.com/zweiadr/gw2advisor/messaging"
)

// fakeReader serves one canned account from memory.
type fakeReader struct {
	account    string
	characters []string
	bags       map[string]*gw2api.CharacterInventory
	materials  []gw2api.ItemStack
	bank       []*gw2api.ItemStack
	shared     []*gw2api.ItemStack
	infos      map[int]gw2api.ItemInfo
	prices     map[int]gw2api.Price
	recipes    []gw2api.Recipe

	err error // when set, every call fails with it
}

func (f *fakeReader) AccountName(ctx context.Context) (string, error) {
	if err := f.fail(ctx); err != nil {
		return "", err
	}
	return f.account, nil
}

func (f *fakeReader) Characters(ctx context.Context) ([]string, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	return f.characters, nil
}

func (f *fakeReader) CharacterInventory(ctx context.Context, name string) (*gw2api.CharacterInventory, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	if inv, ok := f.bags[name]; ok {
		return inv, nil
	}
	return &gw2api.CharacterInventory{}, nil
}

func (f *fakeReader) MaterialStorage(ctx context.Context) ([]gw2api.ItemStack, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	return f.materials, nil
}

func (f *fakeReader) Bank(ctx context.Context) ([]*gw2api.ItemStack, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	return f.bank, nil
}

func (f *fakeReader) SharedSlots(ctx context.Context) ([]*gw2api.ItemStack, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	return f.shared, nil
}

func (f *fakeReader) ItemInfo(ctx context.Context, ids []int) ([]gw2api.ItemInfo, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	var out []gw2api.ItemInfo
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *fakeReader) ItemPrices(ctx context.Context, ids []int) ([]gw2api.Price, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	var out []gw2api.Price
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeReader) ItemPrice(ctx context.Context, id int) (*gw2api.Price, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	p := f.prices[id]
	p.ID = id
	return &p, nil
}

func (f *fakeReader) Recipes(ctx context.Context) ([]gw2api.Recipe, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	return f.recipes, nil
}

func (f *fakeReader) fail(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.err
}

// recorder collects broadcast progress messages for assertions.
type recorder struct {
	messaging.NopListener
	mu       sync.Mutex
	messages []string
}

func (r *recorder) OnMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func stack(id, count int) *gw2api.ItemStack {
	return &gw2api.ItemStack{ID: id, Count: count}
}

func aliceReader() *fakeReader {
	return &fakeReader{
		account:    "alice.1234",
		characters: []string{"Mesmer"},
		bags: map[string]*gw2api.CharacterInventory{
			"Mesmer": {Bags: []*gw2api.Bag{
				nil,
				{Inventory: []*gw2api.ItemStack{stack(19700, 30), nil}},
			}},
		},
		materials: []gw2api.ItemStack{
			{ID: 19700, Count: 260},
			{ID: 19722, Count: 40},
		},
		bank:   []*gw2api.ItemStack{stack(70000, 1), nil, {ID: 1111, Count: 2, Binding: "Account"}},
		shared: []*gw2api.ItemStack{stack(19700, 50)},
		infos: map[int]gw2api.ItemInfo{
			19700: {ID: 19700, Name: "Copper Ore", Type: "CraftingMaterial", Rarity: "Basic", ChatLink: "[&AgHkTAAA]"},
			19722: {ID: 19722, Name: "Elder Wood Log", Type: "CraftingMaterial", Rarity: "Basic"},
			70000: {ID: 70000, Name: "Berserker Sword", Type: "Weapon", Rarity: "Rare", Level: 80},
			1111:  {ID: 1111, Name: "Bound Trinket", Type: "Trinket", Rarity: "Fine"},
			19680: {ID: 19680, Name: "Copper Ingot", Type: "CraftingMaterial", Rarity: "Basic"},
		},
		prices: map[int]gw2api.Price{
			70000:      {ID: 70000, Sells: gw2api.PriceQuote{UnitPrice: 3500}},
			EctoItemID: {Sells: gw2api.PriceQuote{UnitPrice: 3000}},
		},
		recipes: []gw2api.Recipe{
			{ID: 1, Type: "Refinement", OutputItemID: 19680,
				Ingredients: []gw2api.Ingredient{{Type: "Item", ID: 19700, Count: 2}}},
			{ID: 2, Type: "Refinement", OutputItemID: 19712,
				Ingredients: []gw2api.Ingredient{{Type: "Item", ID: 99999, Count: 3}}},
			{ID: 3, Type: "Weapon", OutputItemID: 70000,
				Ingredients: []gw2api.Ingredient{{Type: "Item", ID: 19700, Count: 1}}},
			{ID: 4, Type: "Refinement", OutputItemID: 19721,
				Ingredients: []gw2api.Ingredient{{Type: "Currency", ID: 1, Count: 10}}},
		},
	}
}

func TestModelLoad(t *testing.T) {
	m := NewModel(messaging.New(), false)
	err := m.Load(context.Background(), []AccountReader{aliceReader()})
	require.NoError(t, err)

	assert.True(t, m.IsReady())
	assert.Equal(t, []string{"alice.1234"}, m.Accounts())
	// largest material stack 260 rounds up to 500
	assert.Equal(t, 500, m.StorageSize("alice.1234"))
	// one nil bag slot, one nil bank slot
	assert.Equal(t, 2, m.EmptySlots())

	copper := m.Item(19700)
	require.NotNil(t, copper)
	assert.Equal(t, 340, copper.TotalCount(""))
	assert.True(t, copper.Stackable)
	assert.True(t, copper.Resolved)
	assert.Equal(t, "https://wiki.guildwars2.com/?search=%5B%26AgHkTAAA%5D", copper.WikiLink)

	bound := m.Item(1111)
	require.NotNil(t, bound)
	assert.True(t, bound.AccountBound)
	assert.False(t, bound.Stackable)
}

func TestModelLoadRareSalvage(t *testing.T) {
	m := NewModel(messaging.New(), false)
	require.NoError(t, m.Load(context.Background(), []AccountReader{aliceReader()}))

	sword := m.Item(70000)
	require.NotNil(t, sword)
	assert.True(t, sword.RareForSalvage)
	require.NotNil(t, sword.Price)
	assert.Equal(t, 3500, *sword.Price)
}

func TestModelLoadEctoPrice(t *testing.T) {
	m := NewModel(messaging.New(), false)
	require.NoError(t, m.Load(context.Background(), []AccountReader{aliceReader()}))

	want := (3000*tpTax*ectoChance - salvageCost) / tpTax
	assert.InDelta(t, want, m.EctoSalvagePrice(), 1e-9)
}

func TestModelLoadRecipes(t *testing.T) {
	m := NewModel(messaging.New(), false)
	require.NoError(t, m.Load(context.Background(), []AccountReader{aliceReader()}))

	// only the satisfiable refinement with an item ingredient survives
	require.Len(t, m.recipes, 1)
	assert.Equal(t, 1, m.recipes[0].ID)

	out, ok := m.craftOutputs[19680]
	require.True(t, ok)
	assert.Equal(t, "Copper Ingot", out.Name)
	assert.Empty(t, out.Sources)
}

func TestModelLoadProgressMessages(t *testing.T) {
	msg := messaging.New()
	rec := &recorder{}
	msg.AddListener(rec)

	m := NewModel(msg, false)
	require.NoError(t, m.Load(context.Background(), []AccountReader{aliceReader()}))

	got := rec.all()
	assert.Contains(t, got, "Loading characters@alice.1234")
	assert.Contains(t, got, "Loading character Mesmer@alice.1234")
	assert.Contains(t, got, "Loading material storage@alice.1234")
	assert.Contains(t, got, "Loading bank@alice.1234")
	assert.Contains(t, got, "Loading shared slots@alice.1234")
	assert.Contains(t, got, "Loading item details")
	assert.Contains(t, got, "Loading recipes")
}

func TestModelLoadUnresolvedItem(t *testing.T) {
	r := aliceReader()
	delete(r.infos, 19722)

	m := NewModel(messaging.New(), false)
	require.NoError(t, m.Load(context.Background(), []AccountReader{r}))

	it := m.Item(19722)
	require.NotNil(t, it)
	assert.False(t, it.Resolved)
	assert.Empty(t, it.Name)
}

func TestModelLoadErrorResets(t *testing.T) {
	boom := errors.New("boom")
	good := aliceReader()
	bad := aliceReader()
	bad.account = "bob.5678"
	bad.err = boom

	m := NewModel(messaging.New(), false)
	err := m.Load(context.Background(), []AccountReader{good, bad})
	require.ErrorIs(t, err, boom)
	assert.False(t, m.IsReady())
	assert.Empty(t, m.Accounts())
	assert.Nil(t, m.Item(19700))
}

func TestModelLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewModel(messaging.New(), false)
	err := m.Load(ctx, []AccountReader{aliceReader()})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, m.IsReady())
}

func TestModelLoadNoReaders(t *testing.T) {
	m := NewModel(messaging.New(), false)
	require.NoError(t, m.Load(context.Background(), nil))
	assert.False(t, m.IsReady())
}

func TestModelTwoAccounts(t *testing.T) {
	first := aliceReader()
	second := aliceReader()
	second.account = "bob.5678"
	second.materials = []gw2api.ItemStack{{ID: 19700, Count: 900}}

	m := NewModel(messaging.New(), false)
	require.NoError(t, m.Load(context.Background(), []AccountReader{first, second}))

	assert.Equal(t, []string{"alice.1234", "bob.5678"}, m.Accounts())
	assert.Equal(t, 500, m.StorageSize("alice.1234"))
	assert.Equal(t, 1000, m.StorageSize("bob.5678"))

	copper := m.Item(19700)
	require.NotNil(t, copper)
	assert.Equal(t, 340, copper.TotalCount("alice.1234"))
	assert.Equal(t, 900, copper.TotalCount("bob.5678"))
}

func TestAnnotateConsumables(t *testing.T) {
	food := &gw2api.ItemInfo{ID: 10, Type: "Consumable", Details: gw2api.ItemDetails{Type: "Food"}}

	without := NewModel(messaging.New(), false)
	it := NewItem(10)
	without.annotate(it, food)
	assert.True(t, it.Stackable) // Consumable is not an equipment type

	soulbound := &gw2api.ItemInfo{ID: 11, Type: "CraftingMaterial", Flags: []string{"SoulbindOnAcquire"}}
	it2 := NewItem(11)
	without.annotate(it2, soulbound)
	assert.False(t, it2.Stackable)
}

func TestAnnotateDeletable(t *testing.T) {
	m := NewModel(messaging.New(), false)

	byDescription := NewItem(20)
	m.annotate(byDescription, &gw2api.ItemInfo{ID: 20, Description: collectionOnlyDescription})
	assert.True(t, byDescription.Deletable)

	byID := NewItem(66650)
	m.annotate(byID, &gw2api.ItemInfo{ID: 66650})
	assert.True(t, byID.Deletable)

	plain := NewItem(21)
	m.annotate(plain, &gw2api.ItemInfo{ID: 21})
	assert.False(t, plain.Deletable)
}

func TestAnnotateRareForSalvage(t *testing.T) {
	m := NewModel(messaging.New(), false)

	cases := []struct {
		name string
		info gw2api.ItemInfo
		want bool
	}{
		{"qualifying weapon", gw2api.ItemInfo{Type: "Weapon", Rarity: "Rare", Level: 78}, true},
		{"level too low", gw2api.ItemInfo{Type: "Weapon", Rarity: "Rare", Level: 77}, false},
		{"wrong rarity", gw2api.ItemInfo{Type: "Weapon", Rarity: "Exotic", Level: 80}, false},
		{"unsalvageable", gw2api.ItemInfo{Type: "Weapon", Rarity: "Rare", Level: 80, Flags: []string{"NoSalvage"}}, false},
		{"account bound", gw2api.ItemInfo{Type: "Weapon", Rarity: "Rare", Level: 80, Flags: []string{"AccountBound"}}, false},
		{"not equipment", gw2api.ItemInfo{Type: "CraftingMaterial", Rarity: "Rare", Level: 80}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := NewItem(1)
			m.annotate(it, &tc.info)
			assert.Equal(t, tc.want, it.RareForSalvage)
		})
	}
}
