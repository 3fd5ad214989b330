package models

import (
	"fmt"
	"strconv"
	"strings"
)

// UnfilteredCategories is the category id value meaning "any category".
const UnfilteredCategories = "0"

// ProductFilter selects a page of products by category membership and name.
type ProductFilter struct {
	CategoryIDs []int64
	Name        string
	Page        PageRequest
}

// ParseCategoryIDs parses a comma-delimited list of category ids.
// "0" or an empty string yields an empty set, which matches every product.
// Duplicates are collapsed; the first occurrence keeps its position.
func ParseCategoryIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == UnfilteredCategories {
		return []int64{}, nil
	}

	segments := strings.Split(raw, ",")
	ids := make([]int64, 0, len(segments))
	seen := make(map[int64]struct{}, len(segments))

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		id, err := strconv.ParseInt(seg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: category id %q is not a positive integer", ErrInvalidFilter, seg)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}
