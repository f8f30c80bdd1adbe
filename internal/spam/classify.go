package spam

import (
	"strings"

	"github.com/calebwyatt/dealscout/internal/models"
)

// Feedback bands for seller classification. Above the high threshold a
// seller moves inventory at dealer volume; below the casual ceiling they
// are almost certainly clearing out a drawer.
const (
	HighFeedbackThreshold   = 1000
	CasualFeedbackThreshold = 500
)

// professionalKeywords flag dealer vocabulary in a seller name or bio,
// keyed by category plus a generic list applied everywhere. Professionals
// know pricing, so their listings rarely hide opportunities.
var professionalKeywords = map[models.Category][]string{
	models.CategoryGold: {
		"jewelry", "jewel", "jeweler", "pawn", "coin", "precious", "metal",
		"bullion", "karat", "scrap", "refinery", "refiner", "gems", "diamond",
	},
	models.CategorySilver: {
		"jewelry", "jewel", "jeweler", "pawn", "coin", "precious", "metal",
		"bullion", "sterling", "flatware", "silverware", "scrap", "refinery",
	},
	models.CategoryWatch: {
		"watch", "watches", "timepiece", "horology", "chrono", "horologist",
		"watchmaker", "watchshop", "luxurywatch",
	},
	models.CategoryLego: {
		"brick", "bricks", "lego", "minifig", "minifigure", "bricklink", "afol",
	},
	models.CategoryTCG: {
		"cards", "card", "tcg", "poke", "pokemon", "collectible", "graded",
		"slab", "psa", "bgs", "cgc", "hobby", "cardshop", "breaks", "rips",
	},
}

var genericProfessionalKeywords = []string{
	"llc", "inc", "wholesale", "liquidation", "liquidator", "outlet",
	"warehouse", "deals", "store", "shop", "emporium", "auctions",
	"resale", "reseller",
}

// casualKeywords suggest a one-off estate or household seller.
var casualKeywords = []string{
	"grandma", "grandpa", "attic", "garage", "closet", "downsizing",
	"moving sale", "my stuff", "cleanout", "clean out",
}

// ClassifySeller is a stateless heuristic over the seller's visible name
// and feedback count. Dealer vocabulary or dealer-scale feedback reads as
// professional; estate vocabulary or a thin feedback history reads as
// casual; everything else is unknown. Used as one scoring signal, never as
// a hard filter.
func ClassifySeller(sellerName string, category models.Category, feedback int) models.SellerClass {
	name := strings.ToLower(strings.TrimSpace(sellerName))
	if name == "" && feedback == 0 {
		return models.SellerUnknown
	}

	for _, kw := range genericProfessionalKeywords {
		if strings.Contains(name, kw) {
			return models.SellerProfessional
		}
	}
	for _, kw := range professionalKeywords[category] {
		if strings.Contains(name, kw) {
			return models.SellerProfessional
		}
	}
	if feedback >= HighFeedbackThreshold {
		return models.SellerProfessional
	}

	for _, kw := range casualKeywords {
		if strings.Contains(name, kw) {
			return models.SellerCasual
		}
	}
	if feedback > 0 && feedback < CasualFeedbackThreshold {
		return models.SellerCasual
	}

	return models.SellerUnknown
}
