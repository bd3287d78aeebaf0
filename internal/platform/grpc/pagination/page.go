// Package pagination normalizes list paging inputs at the API boundary.
package pagination

import "strings"

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int32, cfg PageSizeConfig) int {
	pageSize := int(value)
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// PageToken trims a keyset token. Tokens are the last id of the previous
// page, so an empty token starts from the beginning.
func PageToken(token string) string {
	return strings.TrimSpace(token)
}
