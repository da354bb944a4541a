package inventory

// Special (non-character) inventory locations. Character bags use the
// character's name as the location.
const (
	LocationBank       = "$bank"
	LocationStorage    = "$storage"
	LocationSharedSlot = "$shared_slot"
)

var locationNames = map[string]string{
	LocationBank:       "Account Bank",
	LocationStorage:    "Material Storage",
	LocationSharedSlot: "Shared Inventory Slot",
}

// Source records one quantity of one item at one location of one account.
// Sources are created during the inventory build and never mutated.
type Source struct {
	Count    int    `json:"count"`
	Location string `json:"location"`
	Account  string `json:"account"`
}

// LocationName returns the human-readable location. Character locations
// are returned as-is.
func (s Source) LocationName() string {
	if name, ok := locationNames[s.Location]; ok {
		return name
	}
	return s.Location
}
