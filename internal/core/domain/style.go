package domain

// StyleItemType is the garment category a style profile is written for.
type StyleItemType string

const (
	ItemOuterwear StyleItemType = "outerwear"
	ItemBottoms   StyleItemType = "bottoms"
	ItemFootwear  StyleItemType = "footwear"
	ItemKnitwear  StyleItemType = "knitwear"
	ItemBags      StyleItemType = "bags"
	ItemDress     StyleItemType = "dress"
	ItemTop       StyleItemType = "top"
	ItemMixed     StyleItemType = "mixed"
)

// StyleItemTypes lists the valid item types in their canonical order.
var StyleItemTypes = []StyleItemType{
	ItemOuterwear,
	ItemBottoms,
	ItemFootwear,
	ItemKnitwear,
	ItemBags,
	ItemDress,
	ItemTop,
	ItemMixed,
}

// Valid reports whether t is one of the known item types.
func (t StyleItemType) Valid() bool {
	for _, v := range StyleItemTypes {
		if v == t {
			return true
		}
	}

	return false
}

// StyleProfile is in-store sourcing guidance for a style-track signal.
type StyleProfile struct {
	ItemType          StyleItemType `json:"item_type"`
	StylesToFind      []string      `json:"styles_to_find"`
	FindTheseFirst    []string      `json:"find_these_first"`
	WhereToCheckFirst []string      `json:"where_to_check_first"`
	PassIf            []string      `json:"pass_if"`
	ConfidenceNote    string        `json:"confidence_note"`
}

// StyleProfileStatus is the stored status of a signal's style profile.
type StyleProfileStatus string

const (
	StyleStatusOK      StyleProfileStatus = "ok"
	StyleStatusInvalid StyleProfileStatus = "invalid"
	StyleStatusMissing StyleProfileStatus = "missing"
	StyleStatusError   StyleProfileStatus = "error"
)
