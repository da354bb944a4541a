package inventory

// Static game knowledge the rules run on: fixed item ids, thresholds and
// instruction texts. Ids refer to the GW2 item API.

// EctoItemID is Glob of Ectoplasm, the reference salvage material.
const EctoItemID = 19721

// Salvage economics used for the ecto reference price: trading post tax,
// ecto chance per rare salvage, and amortized salvage kit cost per use.
const (
	tpTax        = 0.85
	ectoChance   = 0.875
	salvageCost  = 0.10496
	rareLevelMin = 78
)

// collectionOnlyDescription marks items that exist purely for collection
// unlocks and can be deleted once consumed.
const collectionOnlyDescription = "This item only has value as part of a collection."

// salvageItemDescription marks items whose only purpose is salvaging.
const salvageItemDescription = "Salvage Item"

// luckItemIDs are the three essences of luck worth condensing at an
// artificer once an account holds more than a stack.
var luckItemIDs = []int{45175, 45176, 45177}

// deletableItemIDs are collection leftovers whose description does not
// carry the collection-only marker but that are still safe to delete.
var deletableItemIDs = map[int]bool{
	43319: true, // Torn Piece of Scarlet's Clothing
	66650: true, // Zephyrite Lockpick
}

// equipmentTypes are item types that occupy one slot each and never stack.
var equipmentTypes = map[string]bool{
	"Armor":     true,
	"Back":      true,
	"Gathering": true,
	"Tool":      true,
	"Trinket":   true,
	"Weapon":    true,
	"Bag":       true,
	"Container": true,
	"Gizmo":     true,
}

// salvageEquipmentTypes are the equipment types worth salvaging for ectos.
var salvageEquipmentTypes = map[string]bool{
	"Armor":   true,
	"Back":    true,
	"Trinket": true,
	"Weapon":  true,
}

// craftRecipeTypes are the refinement and cooking recipe types the craft
// rule considers: cheap, always-useful conversions that shrink material
// stacks.
var craftRecipeTypes = map[string]bool{
	"Refinement":          true,
	"RefinementEctoplasm": true,
	"RefinementObsidian":  true,
	"Ingredient":          true,
	"IngredientCooking":   true,
	"Food":                true,
	"Meal":                true,
	"Dessert":             true,
	"Snack":               true,
	"Soup":                true,
	"Seasoning":           true,
	"Feast":               true,
}

// Gobble describes a feeder material and the consumable that eats it.
type Gobble struct {
	ItemID     int // feeder material
	GobblerID  int // consumable that gobbles the feeder
	GobbleSize int // units consumed per use
}

// gobbles lists every feeder/gobbler pair. The rule fires when the feeder
// overflows the account's material storage cap.
var gobbles = []Gobble{
	{46731, 77093, 250}, // Bloodstone Dust → Herta
	{46731, 66999, 50},  // Bloodstone Dust → Mawdrey II
	{46733, 69887, 50},  // Empyreal Fragment → Princess
	{46735, 68369, 50},  // Pile of Dragonite Ore → Star of Gratitude
	{83103, 83305, 25},  // Spearmarshal's Plea
}

// MiscAdvice is a one-off threshold rule: hold at least MinSize and the
// advice applies.
type MiscAdvice struct {
	ItemID  int
	MinSize int
	Text    string
}

var miscAdvices = []MiscAdvice{
	{43773, 25, "Transform Quartz Crystals into a Charged Quartz Crystal at a place of power."},
	{66608, 100, "Sift through silky sand."},
	{48717, 4, "Craft 'Completed Aetherkey'."},
}

// playToConsume maps items to the gameplay activity that consumes them.
var playToConsume = map[int]string{
	78758: "Trade to get bounty for bandit leader.",
	78886: "Have in inventory while defeating a bandit leader to spawn the Legendary Bandit Executioner",
	84335: "Use during a treasure hunt meta in Desert Highlands to spawn chests",
	67826: "Use in the Silverwastes after a meta completes to spawn chests. Make sure you have required keys.",
	67979: "Open a greater nightmare pod in the Silverwastes after completing meta.",
	67818: "Use during breach event in Silverwastes.",
	67780: "Open Tarnished chest in Silverwastes.",
	93407: "Use in the Drizzlewood Coast to spawn chests. Make sure you have required keys.",
	87517: "Open krait Sunken Chests to progress a Master Diver achievement.",
	48716: "Open chests in the Aetherpath of the Twilight Arbor dungeon.",

	78782: "Complete this bounty.",
	78754: "Complete this bounty.",
	78786: "Complete this bounty.",
	78784: "Complete this bounty.",
	78781: "Complete this bounty.",
	78883: "Complete this bounty.",
	78859: "Complete this bounty.",
	78988: "Complete this bounty.",
	78867: "Complete this bounty.",
	78954: "Complete this bounty.",

	71627: "Complete events in the Verdant Brink.",
	75024: "Complete events in the Auric Basin.",
	71207: "Complete events in the Tangled Depths.",
}

// karmaConsumableIDs are drops that convert into karma when consumed.
var karmaConsumableIDs = []int{
	38030, // Drop of Liquid Karma
	42709, // Swig of Liquid Karma
	42710, // Taste of Liquid Karma
	42711, // Sip of Liquid Karma
	42712, // Gulp of Liquid Karma
}

const karmaAdviceText = "Consume for karma."

// currencyCleanup groups the living-story map materials that double as
// account-wallet currency. Each fires per account once the material
// overflows that account's storage cap.
type currencyGroup struct {
	Name    string
	ItemIDs []int
	Text    string
}

var currencyGroups = []currencyGroup{
	{
		Name:    "LS3",
		ItemIDs: []int{79280, 79469, 79899, 80332, 81127, 81706},
		Text:    "Consume for Unbound Magic. Beware: also currency for ascended trinkets.",
	},
	{
		Name:    "LS4",
		ItemIDs: []int{86069, 86977, 87645, 88955, 89537, 90783},
		Text:    "Consume for Volatile Magic. Beware: also currency for ascended trinkets.",
	},
	{
		Name:    "IBS",
		ItemIDs: []int{92072, 92272, 92344},
		Text:    "Consume into account wallet currency.",
	},
}
