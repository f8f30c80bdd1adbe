package normalize

import (
	"strings"

	"github.com/calebwyatt/dealscout/internal/models"
)

// CategoryRule binds one category to the keyword list that identifies it.
type CategoryRule struct {
	Category models.Category
	Keywords []string
}

// CategoryRules is evaluated in order, first match wins. Trading cards come
// before metals so "pokemon gold" does not land in gold, and watches come
// before metals so "14k gold watch" classifies by the movement, not the case.
var CategoryRules = []CategoryRule{
	{models.CategoryTCG, []string{
		"pokemon", "pokémon", "pikachu", "charizard", "mewtwo",
		"booster box", "booster pack", "etb", "elite trainer",
		"mtg", "magic the gathering", "magic: the gathering",
		"collector booster", "draft booster", "set booster",
		"yugioh", "yu-gi-oh", "konami",
		"tcg", "trading card game", "sealed box", "factory sealed",
	}},
	{models.CategoryLego, []string{
		"lego", "legoland", "lego set", "lego star wars", "lego technic",
	}},
	{models.CategoryWatch, []string{
		"wristwatch", "chronograph", "rolex", "omega seamaster",
		"omega speedmaster", "seiko", "tudor", "breitling", "tag heuer",
		"pocket watch", "watch",
	}},
	{models.CategoryGold, []string{
		"gold", "14k", "10k", "18k", "22k", "24k", "8k", "9k",
		"585", "750", "417", "375", "916", "583", "karat", "14kt", "18kt",
	}},
	{models.CategorySilver, []string{
		"sterling", "silver", "925", "800", "830", "900",
		"coin silver", "mexican silver", "navajo", ".925",
		"gorham", "wallace", "reed & barton", "reed barton", "alvin", "durgin",
		"international silver", "towle", "lunt", "kirk", "stieff", "oneida",
		"whiting", "tiffany & co", "georg jensen", "christofle",
	}},
}

// knownAliases are the category names a webhook Alias field may carry
// directly. Anything else the sender made up maps to "other".
var knownAliases = map[string]models.Category{
	"gold":   models.CategoryGold,
	"silver": models.CategorySilver,
	"watch":  models.CategoryWatch,
	"lego":   models.CategoryLego,
	"tcg":    models.CategoryTCG,
}

// DetectCategory classifies a listing from its title and description text.
// No keyword hit means "unknown", never a guess.
func DetectCategory(title, description string) models.Category {
	text := strings.ToLower(title + " " + description)
	for _, rule := range CategoryRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Category
			}
		}
	}
	return models.CategoryUnknown
}

// categoryFromAlias resolves a webhook-supplied alias, falling back to
// keyword detection when the alias is empty.
func categoryFromAlias(alias, title, description string) models.Category {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return DetectCategory(title, description)
	}
	if cat, ok := knownAliases[alias]; ok {
		return cat
	}
	return models.CategoryOther
}
