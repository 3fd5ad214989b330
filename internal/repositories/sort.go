package repositories

import (
	"fmt"
	"strings"

	"github.com/BradenHooton/dscatalog/internal/models"
)

// orderBy renders an ORDER BY clause from whitelisted sort properties.
// allowed maps API property names to column expressions. tiebreak is always
// appended last so that pages never overlap.
func orderBy(sorts []models.SortOrder, allowed map[string]string, tiebreak string) (string, error) {
	parts := make([]string, 0, len(sorts)+1)
	tiebreakUsed := false

	for _, s := range sorts {
		column, ok := allowed[s.Property]
		if !ok {
			return "", fmt.Errorf("%w: unsupported sort property %q", models.ErrInvalidFilter, s.Property)
		}

		dir := "ASC"
		if s.Direction == models.SortDesc {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
		if column == tiebreak {
			tiebreakUsed = true
		}
	}

	if !tiebreakUsed {
		parts = append(parts, tiebreak+" ASC")
	}

	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// likeContains escapes LIKE wildcards and wraps the value for a substring match.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
