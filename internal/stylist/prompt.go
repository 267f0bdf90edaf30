package stylist

import (
	"fmt"
	"strings"

	"github.com/culturalabs/cultura/internal/profile"
)

const promptHeader = `You are Cultura, an expert fashion and lifestyle assistant. Give the user practical, specific recommendations for their request.

Instructions:
1. Provide recommendations as a numbered list (1., 2., 3.).
2. Do not use bold text, markdown, or any special formatting.
3. Keep the tone casual, friendly, and concise.
4. Include specific product names, brands, and styling tips where possible.
5. Make suggestions relevant to the user's location, body type, style preferences, and budget.
6. Keep the entire response under 300 words.
7. If you need more details (location, body type, budget), ask politely at the end.`

// ComposePrompt builds the final generation prompt deterministically: same
// message, facts and market profile always produce the same string.
func ComposePrompt(message string, intent Intent, facts profile.Facts, mp *MarketProfile) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")

	if mp != nil && mp.Place.Found {
		fmt.Fprintf(&b, "LOCATION DETAILS:\n- Location: %s\n", mp.Place.DisplayName)

		fmt.Fprintf(&b, "\nLOCAL FASHION ECOSYSTEM:\n")
		fmt.Fprintf(&b, "- Region: %s\n", mp.Region)
		fmt.Fprintf(&b, "- Fashion market: %s\n", mp.FashionMarket)
		fmt.Fprintf(&b, "- Local brands: %s\n", joinList(mp.LocalBrands))
		fmt.Fprintf(&b, "- Available stores: %s\n", joinList(mp.AvailableStores))
		fmt.Fprintf(&b, "- Online platforms: %s\n", joinList(mp.OnlinePlatforms))

		fmt.Fprintf(&b, "\nCULTURAL & CLIMATE CONTEXT:\n")
		fmt.Fprintf(&b, "- Climate zone: %s\n", mp.ClimateZone)
		fmt.Fprintf(&b, "- Cultural considerations: %s\n", joinList(mp.CulturalConsiderations))
		fmt.Fprintf(&b, "- Seasonal info: %s\n", mp.SeasonalInfo)
		fmt.Fprintf(&b, "- Typical pricing: %s\n", mp.PriceRangeInfo)
		fmt.Fprintf(&b, "- Popular styles: %s\n", joinList(mp.PopularStyles))

		rec := mp.EffectiveClimateRecommendations()
		fmt.Fprintf(&b, "\nCLIMATE-APPROPRIATE RECOMMENDATIONS:\n")
		fmt.Fprintf(&b, "- Fabrics: %s\n", joinList(rec.Fabrics))
		fmt.Fprintf(&b, "- Colors: %s\n", joinList(rec.Colors))
		fmt.Fprintf(&b, "- Styles: %s\n", joinList(rec.Styles))
		fmt.Fprintf(&b, "- Essentials: %s\n", joinList(rec.Essentials))
		b.WriteString("\n")
	} else if facts.Location != "" && facts.Location != profile.Unknown {
		fmt.Fprintf(&b, "User location: %s\n\n", facts.Location)
	}

	fmt.Fprintf(&b, "User information:\n")
	fmt.Fprintf(&b, "- Body type: %s\n", orUnknown(facts.BodyType))
	fmt.Fprintf(&b, "- Style preferences: %s\n", orUnknown(facts.StylePreferences))
	fmt.Fprintf(&b, "- Budget: %s\n", orUnknown(facts.Budget))
	fmt.Fprintf(&b, "- Request category: %s\n", intent)

	fmt.Fprintf(&b, "\nUser message: %q\n", message)
	return b.String()
}

func joinList(items []string) string {
	if len(items) == 0 {
		return profile.Unknown
	}
	return strings.Join(items, ", ")
}
