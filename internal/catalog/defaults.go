package catalog

import "github.com/m3rciful/storebot/internal/domain"

// Defaults returns the stock catalog seeded on first boot. Admins adjust
// stock and prices afterwards; re-seeding never overwrites their edits.
func Defaults() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "tg-bd", Kind: domain.KindAccount, Category: "BD", Title: "Telegram Account (BD +880)", Price: 80, Active: true},
		{ID: "tg-in", Kind: domain.KindAccount, Category: "IN", Title: "Telegram Account (IN +91)", Price: 100, Active: true},
		{ID: "tg-us", Kind: domain.KindAccount, Category: "US", Title: "Telegram Account (US +1)", Price: 250, Active: true},
		{ID: "tg-uk", Kind: domain.KindAccount, Category: "UK", Title: "Telegram Account (UK +44)", Price: 220, Active: true},
		{ID: "game-pubg", Kind: domain.KindGameSlot, Category: "pubg", Title: "PUBG Registration Number", Price: 120, Active: true},
		{ID: "game-freefire", Kind: domain.KindGameSlot, Category: "freefire", Title: "Free Fire Registration Number", Price: 90, Active: true},
	}
}
