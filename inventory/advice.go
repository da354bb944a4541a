package inventory

import (
	"fmt"

	"github.com/zweiadr/gw2advisor/gw2api"
)

// Rule names, used as memo keys and as REST route parameters.
const (
	RuleStacks      = "stacks"
	RuleVendor      = "vendor"
	RuleRareSalvage = "rare-salvage"
	RuleCraftLuck   = "craft-luck"
	RuleJustDelete  = "just-delete"
	RuleJustSalvage = "just-salvage"
	RulePlay        = "play"
	RuleGobble      = "gobble"
	RuleMisc        = "misc"
	RuleKarma       = "karma"
	RuleCurrency    = "ls"
	RuleCraft       = "craft"
)

// RuleNames lists every advice rule in presentation order.
var RuleNames = []string{
	RuleStacks, RuleCraft, RuleGobble, RuleVendor, RuleRareSalvage,
	RuleJustSalvage, RuleCraftLuck, RuleKarma, RulePlay, RuleCurrency,
	RuleJustDelete, RuleMisc,
}

// Advice runs the named rule. Unknown names return nil.
func (m *Model) Advice(rule string) []ItemForDisplay {
	switch rule {
	case RuleStacks:
		return m.StackAdvice()
	case RuleVendor:
		return m.VendorAdvice()
	case RuleRareSalvage:
		return m.RareSalvageAdvice()
	case RuleCraftLuck:
		return m.CraftLuckAdvice()
	case RuleJustDelete:
		return m.JustDeleteAdvice()
	case RuleJustSalvage:
		return m.JustSalvageAdvice()
	case RulePlay:
		return m.PlayToConsumeAdvice()
	case RuleGobble:
		return m.GobbleAdvice()
	case RuleMisc:
		return m.MiscAdvice()
	case RuleKarma:
		return m.KarmaConsumablesAdvice()
	case RuleCurrency:
		return m.CurrencyCleanupAdvice()
	case RuleCraft:
		return m.CraftAdvice()
	}
	return nil
}

// memoized caches a rule's result for the lifetime of this model. The
// underlying data is frozen after Load, so results never go stale; a
// reload builds a fresh model with a fresh cache.
func (m *Model) memoized(rule string, fn func() []ItemForDisplay) []ItemForDisplay {
	m.memoMu.Lock()
	defer m.memoMu.Unlock()
	if cached, ok := m.memo[rule]; ok {
		return cached
	}
	result := fn()
	m.memo[rule] = result
	return result
}

// StackAdvice lists items whose partial stacks are worth consolidating.
func (m *Model) StackAdvice() []ItemForDisplay {
	return m.memoized(RuleStacks, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, it := range m.sortedItems() {
			if stacks := it.AdviceStacks(m.storageSize); len(stacks) > 0 {
				out = append(out, Display(it, stacks, ""))
			}
		}
		return out
	})
}

// VendorAdvice lists junk, which only a vendor wants.
func (m *Model) VendorAdvice() []ItemForDisplay {
	return m.memoized(RuleVendor, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, it := range m.sortedItems() {
			if it.Rarity == "Junk" {
				out = append(out, Display(it, nil, ""))
			}
		}
		return out
	})
}

// RareSalvageAdvice decides salvage-versus-sell for high-level rares.
// Items without a market price are omitted; account-bound items below the
// break-even cannot be sold and are omitted as well.
func (m *Model) RareSalvageAdvice() []ItemForDisplay {
	return m.memoized(RuleRareSalvage, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, it := range m.sortedItems() {
			if !it.RareForSalvage || it.Price == nil {
				continue
			}
			if float64(*it.Price) > m.ectoSalvagePrice {
				out = append(out, Display(it, nil, "Salvage!"))
			} else if !it.AccountBound {
				out = append(out, Display(it, nil, "Sell!"))
			}
		}
		return out
	})
}

// CraftLuckAdvice flags accounts hoarding more than a stack of a luck
// essence; condensing them at an artificer frees slots.
func (m *Model) CraftLuckAdvice() []ItemForDisplay {
	return m.memoized(RuleCraftLuck, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, id := range luckItemIDs {
			if !m.HasItem(id) {
				continue
			}
			it := m.items[id]
			if !it.Resolved {
				continue
			}
			for _, account := range m.accounts {
				if it.TotalCount(account) > StackSize {
					out = append(out, Display(it, it.SourcesForAccount(account), ""))
				}
			}
		}
		return out
	})
}

// JustDeleteAdvice lists items that exist only for collection unlocks.
func (m *Model) JustDeleteAdvice() []ItemForDisplay {
	return m.memoized(RuleJustDelete, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, it := range m.sortedItems() {
			if it.Deletable {
				out = append(out, Display(it, nil, ""))
			}
		}
		return out
	})
}

// JustSalvageAdvice lists items whose only purpose is salvaging. Ectos are
// excluded: they are the material, not the fodder.
func (m *Model) JustSalvageAdvice() []ItemForDisplay {
	return m.memoized(RuleJustSalvage, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, it := range m.sortedItems() {
			if it.ItemID != EctoItemID && it.Description == salvageItemDescription {
				out = append(out, Display(it, nil, ""))
			}
		}
		return out
	})
}

// PlayToConsumeAdvice lists held items that a specific gameplay activity
// consumes, with the matching instruction.
func (m *Model) PlayToConsumeAdvice() []ItemForDisplay {
	return m.memoized(RulePlay, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, it := range m.sortedItems() {
			text, ok := playToConsume[it.ItemID]
			if !ok || !it.Resolved || it.TotalCount("") < 1 {
				continue
			}
			out = append(out, Display(it, nil, text))
		}
		return out
	})
}

// GobbleAdvice suggests feeding overflowing materials to their gobbler
// consumable. The sources shown are the feeder's, per overflowing account.
func (m *Model) GobbleAdvice() []ItemForDisplay {
	return m.memoized(RuleGobble, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, g := range gobbles {
			if !m.HasItem(g.ItemID) || !m.HasItem(g.GobblerID) {
				continue
			}
			feeder := m.items[g.ItemID]
			gobbler := m.items[g.GobblerID]
			if !gobbler.Resolved {
				continue
			}
			for _, account := range m.accounts {
				if feeder.TotalCount(account) > m.storageSize[account] {
					out = append(out, Display(gobbler, feeder.SourcesForAccount(account), ""))
				}
			}
		}
		return out
	})
}

// MiscAdvice lists one-off threshold advices.
func (m *Model) MiscAdvice() []ItemForDisplay {
	return m.memoized(RuleMisc, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, advice := range miscAdvices {
			if !m.HasItem(advice.ItemID) {
				continue
			}
			it := m.items[advice.ItemID]
			if it.Resolved && it.TotalCount("") >= advice.MinSize {
				out = append(out, Display(it, nil, advice.Text))
			}
		}
		return out
	})
}

// KarmaConsumablesAdvice lists any held karma consumables.
func (m *Model) KarmaConsumablesAdvice() []ItemForDisplay {
	return m.memoized(RuleKarma, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, id := range karmaConsumableIDs {
			if !m.HasItem(id) {
				continue
			}
			if it := m.items[id]; it.Resolved {
				out = append(out, Display(it, nil, karmaAdviceText))
			}
		}
		return out
	})
}

// CurrencyCleanupAdvice flags living-story map materials overflowing an
// account's material storage; they convert into wallet currency.
func (m *Model) CurrencyCleanupAdvice() []ItemForDisplay {
	return m.memoized(RuleCurrency, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, group := range currencyGroups {
			for _, id := range group.ItemIDs {
				if !m.HasItem(id) {
					continue
				}
				it := m.items[id]
				if !it.Resolved {
					continue
				}
				for _, account := range m.accounts {
					if it.TotalCount(account) > m.storageSize[account] {
						out = append(out, Display(it, it.SourcesForAccount(account), group.Text))
					}
				}
			}
		}
		return out
	})
}

// CraftAdvice suggests recipes that are craftable right now and would eat
// into an oversized ingredient stack. Recipes with an account-bound
// ingredient are judged per account, since their ingredients cannot move.
func (m *Model) CraftAdvice() []ItemForDisplay {
	return m.memoized(RuleCraft, func() []ItemForDisplay {
		var out []ItemForDisplay
		for _, recipe := range m.recipes {
			output, ok := m.craftOutputs[recipe.OutputItemID]
			if !ok {
				continue
			}
			if m.recipeBound(recipe.Ingredients) {
				for _, account := range m.accounts {
					if sources := m.craftSources(recipe.Ingredients, account); sources != nil {
						out = append(out, Display(output, sources,
							fmt.Sprintf("Craft on %s to shrink ingredient stacks.", account)))
					}
				}
			} else if sources := m.craftSources(recipe.Ingredients, ""); sources != nil {
				out = append(out, Display(output, sources, "Craft to shrink ingredient stacks."))
			}
		}
		return out
	})
}

// recipeBound reports whether any item-type ingredient is account-bound.
func (m *Model) recipeBound(ingredients []gw2api.Ingredient) bool {
	for _, ing := range ingredients {
		if ing.Type != "Item" {
			continue
		}
		if it, ok := m.items[ing.ID]; ok && it.AccountBound {
			return true
		}
	}
	return false
}

// craftSources checks one recipe against one account (or globally for an
// empty account): every item ingredient must be covered and at least one
// must exceed a full stack. It returns the sources of the oversized
// ingredients, or nil when the recipe does not qualify.
func (m *Model) craftSources(ingredients []gw2api.Ingredient, account string) []Source {
	var oversized []Source
	exceeds := false
	for _, ing := range ingredients {
		if ing.Type != "Item" {
			continue
		}
		it, ok := m.items[ing.ID]
		if !ok {
			return nil
		}
		count := it.TotalCount(account)
		if count < ing.Count {
			return nil
		}
		if count > StackSize {
			exceeds = true
			if account == "" {
				oversized = append(oversized, it.Sources...)
			} else {
				oversized = append(oversized, it.SourcesForAccount(account)...)
			}
		}
	}
	if !exceeds {
		return nil
	}
	return oversized
}
