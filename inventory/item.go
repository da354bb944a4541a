package inventory

import "sort"

// StackSize is the per-slot cap of a stackable item. Material storage
// holds more per material; its cap is tracked per account.
const StackSize = 250

// Item aggregates every Source of a single item id across all loaded
// accounts, plus the metadata the enrichment pass attaches.
type Item struct {
	ItemID  int      `json:"item_id"`
	Sources []Source `json:"sources"`

	// AccountBound is last-write-wins across all sources seen for this id.
	// In practice the binding is consistent per id; conflicts are not
	// reconciled.
	AccountBound bool `json:"account_bound"`

	Name           string `json:"name"`
	Icon           string `json:"icon"`
	Rarity         string `json:"rarity"`
	Description    string `json:"description,omitempty"`
	WikiLink       string `json:"wiki_link,omitempty"`
	Stackable      bool   `json:"stackable"`
	Deletable      bool   `json:"deletable"`
	RareForSalvage bool   `json:"rare_for_salvage"`
	Price          *int   `json:"price,omitempty"`

	// Resolved marks that metadata came back from the API for this id.
	// Rules that need metadata skip unresolved items.
	Resolved bool `json:"-"`
}

// NewItem creates an empty aggregate for the given id.
func NewItem(itemID int) *Item {
	return &Item{ItemID: itemID}
}

// Add appends a source record.
func (it *Item) Add(src Source) {
	it.Sources = append(it.Sources, src)
}

// TotalCount sums source counts. An empty account sums every source.
func (it *Item) TotalCount(account string) int {
	total := 0
	for _, src := range it.Sources {
		if account == "" || src.Account == account {
			total += src.Count
		}
	}
	return total
}

// SourcesForAccount filters sources by account, preserving discovery order.
func (it *Item) SourcesForAccount(account string) []Source {
	var out []Source
	for _, src := range it.Sources {
		if src.Account == account {
			out = append(out, src)
		}
	}
	return out
}

// PartialStacks returns the sources that do not fill their slot: any stack
// under 250, and any material storage stack under that account's storage
// cap. Only accounts present in storageSize are considered.
func (it *Item) PartialStacks(storageSize map[string]int) []Source {
	var out []Source
	for _, src := range it.Sources {
		storageCap, ok := storageSize[src.Account]
		if !ok {
			continue
		}
		if src.Count < StackSize || (src.Location == LocationStorage && src.Count < storageCap) {
			out = append(out, src)
		}
	}
	return out
}

// AdviceStacks returns the partial stacks worth consolidating, or nil when
// merging would not reduce the number of occupied slots.
//
// Unbound items can move freely between accounts, so they are judged once
// against the combined total. Bound items are judged per account.
func (it *Item) AdviceStacks(storageSize map[string]int) []Source {
	if !it.Stackable {
		return nil
	}
	if !it.AccountBound {
		partial := it.PartialStacks(storageSize)
		if qualifies(len(partial), it.TotalCount("")) {
			return partial
		}
		return nil
	}

	accounts := make([]string, 0, len(storageSize))
	for account := range storageSize {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	var out []Source
	for _, account := range accounts {
		partial := it.PartialStacks(map[string]int{account: storageSize[account]})
		if qualifies(len(partial), it.TotalCount(account)) {
			out = append(out, partial...)
		}
	}
	return out
}

// qualifies is the stack-merge test: more than one partial stack, and more
// partial stacks than the total would occupy after consolidation.
func qualifies(partialCount, total int) bool {
	consolidated := (total + StackSize - 1) / StackSize
	return partialCount > 1 && partialCount > consolidated
}

// ItemForDisplay pairs an item with the sources relevant to one advice and
// an optional advice text. Rules create these transiently; they are never
// stored back into the model.
type ItemForDisplay struct {
	Item    *Item    `json:"item"`
	Sources []Source `json:"sources"`
	Advice  string   `json:"advice,omitempty"`
}

// Display builds an ItemForDisplay defaulting to all of the item's sources.
func Display(item *Item, sources []Source, advice string) ItemForDisplay {
	if sources == nil {
		sources = item.Sources
	}
	return ItemForDisplay{Item: item, Sources: sources, Advice: advice}
}
