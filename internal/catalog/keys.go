package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dkazancev/product_catalog/internal/repo"
)

// Cache key layout for list pages:
//
//	products:list|<identity>|<page>|<size>|<name>|<category>|<min>|<max>
//
// The delimiter is banned from usernames at registration, so a wildcard for
// one identity can never match another identity's keys. Filter values are
// query-escaped before joining: the list endpoint accepts arbitrary strings,
// and an unescaped delimiter inside one component would make distinct filter
// sets collide on the same key. Escaping also strips glob metacharacters, so
// a filter value can never widen a wildcard match. Absent filters encode as
// the sentinel, which keeps min_price=0 distinct from "no min_price".
const (
	listNamespace = "products:list"
	keyDelim      = "|"
	absentValue   = "∅"
)

func encodeString(p *string) string {
	if p == nil {
		return absentValue
	}
	return url.QueryEscape(*p)
}

func encodeFloat(p *float64) string {
	if p == nil {
		return absentValue
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func ListKey(identity string, page, size int, f repo.ListFilter) string {
	parts := []string{
		listNamespace,
		identity,
		strconv.Itoa(page),
		strconv.Itoa(size),
		encodeString(f.Name),
		encodeString(f.Category),
		encodeFloat(f.MinPrice),
		encodeFloat(f.MaxPrice),
	}
	return strings.Join(parts, keyDelim)
}

// ListWildcard matches every list key cached for the given identity.
func ListWildcard(identity string) string {
	return listNamespace + keyDelim + identity + keyDelim + "*"
}

// ListWildcardAll matches every cached list page regardless of identity.
// Product mutations change what any user's listing would return, so they
// purge the whole namespace, not just the acting admin's keys.
func ListWildcardAll() string {
	return listNamespace + keyDelim + "*"
}
