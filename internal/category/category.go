// Package category guesses a food category from an item name.
package category

import "strings"

const (
	Produce   = "Produce"
	Dairy     = "Dairy & Eggs"
	Meat      = "Meat & Seafood"
	Bakery    = "Bakery"
	Pantry    = "Pantry"
	Frozen    = "Frozen"
	Beverages = "Beverages"
	Leftovers = "Leftovers"
	Other     = "Other"
)

// Categorize returns the category for an item name. Matching is
// case-insensitive: an exact name match wins, then the first keyword
// contained in the name. Unknown names fall back to Other.
func Categorize(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return Other
	}
	if c, ok := exact[name]; ok {
		return c
	}
	for _, k := range keywords {
		if strings.Contains(name, k.word) {
			return k.category
		}
	}
	return Other
}

var exact = map[string]string{
	"milk":     Dairy,
	"eggs":     Dairy,
	"butter":   Dairy,
	"yogurt":   Dairy,
	"cheese":   Dairy,
	"tofu":     Produce,
	"apples":   Produce,
	"bananas":  Produce,
	"lettuce":  Produce,
	"spinach":  Produce,
	"avocado":  Produce,
	"berries":  Produce,
	"chicken":  Meat,
	"beef":     Meat,
	"salmon":   Meat,
	"shrimp":   Meat,
	"bacon":    Meat,
	"bread":    Bakery,
	"bagels":   Bakery,
	"rice":     Pantry,
	"pasta":    Pantry,
	"flour":    Pantry,
	"juice":    Beverages,
	"soda":     Beverages,
	"coffee":   Beverages,
	"leftover": Leftovers,
}

type keyword struct {
	word     string
	category string
}

// Longer phrases precede the single words they contain.
var keywords = []keyword{
	{"ice cream", Frozen},
	{"frozen", Frozen},
	{"peanut butter", Pantry},
	{"almond milk", Dairy},
	{"oat milk", Dairy},
	{"sour cream", Dairy},
	{"cream cheese", Dairy},
	{"ground beef", Meat},
	{"chicken", Meat},
	{"turkey", Meat},
	{"pork", Meat},
	{"sausage", Meat},
	{"ham", Meat},
	{"fish", Meat},
	{"tuna", Meat},
	{"salmon", Meat},
	{"yogurt", Dairy},
	{"cheese", Dairy},
	{"milk", Dairy},
	{"cream", Dairy},
	{"egg", Dairy},
	{"apple", Produce},
	{"banana", Produce},
	{"berry", Produce},
	{"berries", Produce},
	{"grape", Produce},
	{"lettuce", Produce},
	{"salad", Produce},
	{"tomato", Produce},
	{"potato", Produce},
	{"onion", Produce},
	{"pepper", Produce},
	{"carrot", Produce},
	{"herb", Produce},
	{"fruit", Produce},
	{"bread", Bakery},
	{"bagel", Bakery},
	{"tortilla", Bakery},
	{"muffin", Bakery},
	{"croissant", Bakery},
	{"canned", Pantry},
	{"cereal", Pantry},
	{"noodle", Pantry},
	{"sauce", Pantry},
	{"soup", Pantry},
	{"bean", Pantry},
	{"juice", Beverages},
	{"water", Beverages},
	{"tea", Beverages},
	{"beer", Beverages},
	{"wine", Beverages},
	{"leftover", Leftovers},
}
