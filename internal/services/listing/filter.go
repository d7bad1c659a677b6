package listing

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

// Filter - параметры просмотра каталога; пустые поля не фильтруют
type Filter struct {
	Pieces  string
	Brand   string
	Theme   string
	Missing string
}

// Apply фильтрует уже загруженный список, сохраняя порядок.
// Нечисловое значение Pieces игнорируется, отсутствующее число деталей равно 0.
func (f Filter) Apply(listings []models.Listing) []models.Listing {
	pieces, hasPieces := f.pieces()
	fold := cases.Fold()

	brand := fold.String(strings.TrimSpace(f.Brand))
	theme := fold.String(strings.TrimSpace(f.Theme))
	missing := fold.String(strings.TrimSpace(f.Missing))

	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if hasPieces && models.IntValue(l.Pieces) != pieces {
			continue
		}
		if !containsFolded(fold, l.Brand, brand) ||
			!containsFolded(fold, l.Theme, theme) ||
			!containsFolded(fold, l.MissingPieces, missing) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (f Filter) pieces() (int, bool) {
	raw := strings.TrimSpace(f.Pieces)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsFolded(fold cases.Caser, value *string, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(fold.String(models.StringValue(value)), needle)
}
