package materials

import (
	"fmt"

	"github.com/jrsteele09/go-materials-client/api"
)

// FormatPrice renders a price with the user's currency symbol and two decimals.
func FormatPrice(symbol string, price float64) string {
	return fmt.Sprintf("%s%.2f", symbol, price)
}

// Describe renders one material as a single display line.
func Describe(m api.Material, symbol, imageBaseURL string) string {
	line := fmt.Sprintf("%s | %s | %s", m.Title, m.BrandName, FormatPrice(symbol, m.SalesPriceInUsd))
	if m.CoverPhoto != "" {
		line += " | " + m.CoverPhotoURL(imageBaseURL)
	}
	return line
}
