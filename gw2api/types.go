package gw2api

// ItemStack is one raw stack as the API reports it: in a bag slot, a bank
// slot, a shared slot, or the material storage.
type ItemStack struct {
	ID      int    `json:"id"`
	Count   int    `json:"count"`
	Binding string `json:"binding,omitempty"`
}

// Bag is one equipped bag; Inventory slots are nil when empty.
type Bag struct {
	ID        int          `json:"id"`
	Size      int          `json:"size"`
	Inventory []*ItemStack `json:"inventory"`
}

// CharacterInventory is the bag list of one character. Bags themselves can
// be nil for empty bag slots.
type CharacterInventory struct {
	Bags []*Bag `json:"bags"`
}

// ItemDetails carries the type-specific item sub-record. Only the sub-type
// matters to the advisor (Food/Utility consumables).
type ItemDetails struct {
	Type string `json:"type"`
}

// ItemInfo is the static metadata of one item.
type ItemInfo struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Icon        string      `json:"icon"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Rarity      string      `json:"rarity"`
	Level       int         `json:"level"`
	Flags       []string    `json:"flags"`
	ChatLink    string      `json:"chat_link"`
	Details     ItemDetails `json:"details"`
}

// HasFlag reports whether the item carries the given flag.
func (i *ItemInfo) HasFlag(flag string) bool {
	for _, f := range i.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// PriceQuote is one side of the trading post order book.
type PriceQuote struct {
	UnitPrice int `json:"unit_price"`
	Quantity  int `json:"quantity"`
}

// Price is the trading post listing summary for one item.
type Price struct {
	ID    int        `json:"id"`
	Buys  PriceQuote `json:"buys"`
	Sells PriceQuote `json:"sells"`
}

// Ingredient is one input of a recipe. Type is "Item" or "Currency".
type Ingredient struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Count int    `json:"count"`
}

// Recipe is one crafting recipe.
type Recipe struct {
	ID              int          `json:"id"`
	Type            string       `json:"type"`
	OutputItemID    int          `json:"output_item_id"`
	OutputItemCount int          `json:"output_item_count"`
	Disciplines     []string     `json:"disciplines"`
	Ingredients     []Ingredient `json:"ingredients"`
}

// tokenInfo is the /v2/tokeninfo response.
type tokenInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// accountInfo is the subset of /v2/account the advisor reads.
type accountInfo struct {
	Name string `json:"name"`
}
