package inventory

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zweiadr/gw2advisor/gw2api"
	"github.com/zweiadr/gw2advisor/messaging"
)

// Model is the aggregate root of one load: every item aggregate across all
// selected accounts, plus the derived data the rules run on. A Model is
// populated once, frozen, and discarded wholesale on reload or abort.
type Model struct {
	msg                *messaging.Messaging
	includeConsumables bool

	items       map[int]*Item
	accounts    []string
	storageSize map[string]int // per-account material storage cap
	emptySlots  int

	ectoSalvagePrice float64
	recipes          []gw2api.Recipe
	craftOutputs     map[int]*Item // metadata-only aggregates for recipe outputs

	// ready is set by the load goroutine and read by HTTP handlers; the
	// atomic store/load orders the frozen model data behind it.
	ready atomic.Bool

	memoMu sync.Mutex
	memo   map[string][]ItemForDisplay
}

// NewModel creates an empty model. Broadcasts go to msg; pass a hub with no
// listeners to silence them.
func NewModel(msg *messaging.Messaging, includeConsumables bool) *Model {
	m := &Model{msg: msg, includeConsumables: includeConsumables}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.items = make(map[int]*Item)
	m.accounts = nil
	m.storageSize = make(map[string]int)
	m.emptySlots = 0
	m.ectoSalvagePrice = 0
	m.recipes = nil
	m.craftOutputs = make(map[int]*Item)
	m.ready.Store(false)
	m.memoMu.Lock()
	m.memo = make(map[string][]ItemForDisplay)
	m.memoMu.Unlock()
}

// IsReady reports whether the model is fully loaded and frozen.
func (m *Model) IsReady() bool { return m.ready.Load() }

// Accounts returns the account names in load order.
func (m *Model) Accounts() []string { return m.accounts }

// EmptySlots returns the number of empty bag/bank/shared slots seen.
func (m *Model) EmptySlots() int { return m.emptySlots }

// StorageSize returns the material storage cap of one account.
func (m *Model) StorageSize(account string) int { return m.storageSize[account] }

// EctoSalvagePrice returns the break-even unit value of salvaging a rare
// item into ectos versus selling it.
func (m *Model) EctoSalvagePrice() float64 { return m.ectoSalvagePrice }

// Item returns the aggregate for an id, or nil.
func (m *Model) Item(id int) *Item { return m.items[id] }

// HasItem reports whether the id was seen with a positive total count.
func (m *Model) HasItem(id int) bool {
	it, ok := m.items[id]
	return ok && it.TotalCount("") > 0
}

// Load builds the model from the given readers: inventories first, then
// metadata enrichment through the first reader. Shared catalogs (items,
// prices, recipes) are identical across accounts, so one reader serves
// them. On any error, including cancellation, the model is cleared.
func (m *Model) Load(ctx context.Context, readers []AccountReader) error {
	if len(readers) == 0 {
		return nil
	}
	m.reset()

	if err := m.load(ctx, readers); err != nil {
		m.reset()
		return err
	}
	m.ready.Store(true)
	return nil
}

func (m *Model) load(ctx context.Context, readers []AccountReader) error {
	for _, r := range readers {
		account, err := r.AccountName(ctx)
		if err != nil {
			return err
		}
		if err := m.buildStorageSize(ctx, r, account); err != nil {
			return err
		}
		if err := m.buildInventory(ctx, r, account); err != nil {
			return err
		}
		m.accounts = append(m.accounts, account)
	}

	first := readers[0]
	if err := m.buildItemInfo(ctx, first); err != nil {
		return err
	}
	if err := m.buildRecipes(ctx, first); err != nil {
		return err
	}
	return m.buildEctoPrice(ctx, first)
}

func (m *Model) addItem(id int, accountBound bool, src Source) {
	it, ok := m.items[id]
	if !ok {
		it = NewItem(id)
		m.items[id] = it
	}
	it.Add(src)
	it.AccountBound = accountBound
}

func isAccountBound(stack *gw2api.ItemStack) bool {
	return stack.Binding == "Account"
}

// buildStorageSize derives the account's material storage cap: the largest
// observed stack rounded up to the next multiple of 250.
func (m *Model) buildStorageSize(ctx context.Context, r AccountReader, account string) error {
	materials, err := r.MaterialStorage(ctx)
	if err != nil {
		return err
	}
	maxCount := 0
	for _, mat := range materials {
		if mat.Count > maxCount {
			maxCount = mat.Count
		}
	}
	m.storageSize[account] = (maxCount + StackSize - 1) / StackSize * StackSize
	return nil
}

func (m *Model) buildInventory(ctx context.Context, r AccountReader, account string) error {
	m.msg.Broadcast(fmt.Sprintf("Loading characters@%s", account))
	characters, err := r.Characters(ctx)
	if err != nil {
		return err
	}
	for _, name := range characters {
		m.msg.Broadcast(fmt.Sprintf("Loading character %s@%s", name, account))
		inv, err := r.CharacterInventory(ctx, name)
		if err != nil {
			return err
		}
		for _, bag := range inv.Bags {
			if bag == nil {
				continue
			}
			for _, stack := range bag.Inventory {
				if stack == nil {
					m.emptySlots++
					continue
				}
				m.addItem(stack.ID, isAccountBound(stack), Source{Count: stack.Count, Location: name, Account: account})
			}
		}
	}

	m.msg.Broadcast(fmt.Sprintf("Loading material storage@%s", account))
	materials, err := r.MaterialStorage(ctx)
	if err != nil {
		return err
	}
	for i := range materials {
		mat := &materials[i]
		m.addItem(mat.ID, isAccountBound(mat), Source{Count: mat.Count, Location: LocationStorage, Account: account})
	}

	m.msg.Broadcast(fmt.Sprintf("Loading bank@%s", account))
	bank, err := r.Bank(ctx)
	if err != nil {
		return err
	}
	for _, stack := range bank {
		if stack == nil {
			m.emptySlots++
			continue
		}
		m.addItem(stack.ID, isAccountBound(stack), Source{Count: stack.Count, Location: LocationBank, Account: account})
	}

	m.msg.Broadcast(fmt.Sprintf("Loading shared slots@%s", account))
	shared, err := r.SharedSlots(ctx)
	if err != nil {
		return err
	}
	for _, stack := range shared {
		if stack == nil {
			m.emptySlots++
			continue
		}
		m.addItem(stack.ID, isAccountBound(stack), Source{Count: stack.Count, Location: LocationSharedSlot, Account: account})
	}
	return nil
}

// buildItemInfo batch-fetches metadata for every known id, annotates the
// aggregates and appraises rare salvage candidates. Ids the API omits stay
// unresolved and drop out of metadata-dependent rules.
func (m *Model) buildItemInfo(ctx context.Context, r AccountReader) error {
	m.msg.Broadcast("Loading item details")
	ids := make([]int, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	infos, err := r.ItemInfo(ctx, ids)
	if err != nil {
		return err
	}

	var appraiseIDs []int
	for i := range infos {
		info := &infos[i]
		it, ok := m.items[info.ID]
		if !ok {
			continue
		}
		m.annotate(it, info)
		if it.RareForSalvage {
			appraiseIDs = append(appraiseIDs, it.ItemID)
		}
	}

	m.msg.Broadcast("Loading market prices")
	prices, err := r.ItemPrices(ctx, appraiseIDs)
	if err != nil {
		return err
	}
	for _, p := range prices {
		if it, ok := m.items[p.ID]; ok {
			unit := p.Sells.UnitPrice
			it.Price = &unit
		}
	}
	return nil
}

// annotate fills an aggregate's metadata and classification flags from the
// raw item record.
func (m *Model) annotate(it *Item, info *gw2api.ItemInfo) {
	it.Name = info.Name
	it.Icon = info.Icon
	it.Rarity = info.Rarity
	it.Description = info.Description
	if info.ChatLink != "" {
		it.WikiLink = "https://wiki.guildwars2.com/?search=" + url.QueryEscape(info.ChatLink)
	}

	if !equipmentTypes[info.Type] {
		it.Stackable = true
	} else if m.includeConsumables && info.Type == "Consumable" &&
		(info.Details.Type == "Food" || info.Details.Type == "Utility") {
		it.Stackable = true
	}
	if info.HasFlag("SoulbindOnAcquire") {
		it.Stackable = false
	}

	if info.Description == collectionOnlyDescription || deletableItemIDs[info.ID] {
		it.Deletable = true
	}

	if salvageEquipmentTypes[info.Type] && info.Rarity == "Rare" &&
		info.Level >= rareLevelMin &&
		!info.HasFlag("NoSalvage") && !info.HasFlag("AccountBound") {
		it.RareForSalvage = true
	}

	it.Resolved = true
}

// buildRecipes retains the refinement/cooking recipes whose item-type
// ingredients are already satisfiable from the loaded aggregates, then
// synthesizes metadata-only output aggregates for them. The feasibility
// check is a snapshot at load time, not a live one.
func (m *Model) buildRecipes(ctx context.Context, r AccountReader) error {
	m.msg.Broadcast("Loading recipes")
	recipes, err := r.Recipes(ctx)
	if err != nil {
		return err
	}

	for _, recipe := range recipes {
		if !craftRecipeTypes[recipe.Type] {
			continue
		}
		itemIngredients := 0
		satisfiable := true
		for _, ing := range recipe.Ingredients {
			if ing.Type != "Item" {
				continue
			}
			itemIngredients++
			it, ok := m.items[ing.ID]
			if !ok || it.TotalCount("") < ing.Count {
				satisfiable = false
				break
			}
		}
		if itemIngredients == 0 || !satisfiable {
			continue
		}
		m.recipes = append(m.recipes, recipe)
	}

	outputIDs := make([]int, 0, len(m.recipes))
	seen := make(map[int]bool)
	for _, recipe := range m.recipes {
		if !seen[recipe.OutputItemID] {
			seen[recipe.OutputItemID] = true
			outputIDs = append(outputIDs, recipe.OutputItemID)
		}
	}
	sort.Ints(outputIDs)

	infos, err := r.ItemInfo(ctx, outputIDs)
	if err != nil {
		return err
	}
	for i := range infos {
		info := &infos[i]
		out := NewItem(info.ID)
		m.annotate(out, info)
		m.craftOutputs[info.ID] = out
	}
	return nil
}

// buildEctoPrice derives the break-even unit value of salvaging a rare
// into ectos versus selling it, net of trading post tax and salvage cost.
func (m *Model) buildEctoPrice(ctx context.Context, r AccountReader) error {
	m.msg.Broadcast("Loading ecto price")
	price, err := r.ItemPrice(ctx, EctoItemID)
	if err != nil {
		return err
	}
	m.ectoSalvagePrice = (float64(price.Sells.UnitPrice)*tpTax*ectoChance - salvageCost) / tpTax
	return nil
}

// sortedItems returns every aggregate ordered by item id, so rule output
// is stable across runs.
func (m *Model) sortedItems() []*Item {
	ids := make([]int, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Item, len(ids))
	for i, id := range ids {
		out[i] = m.items[id]
	}
	return out
}
