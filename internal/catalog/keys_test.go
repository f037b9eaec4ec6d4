package catalog

import (
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkazancev/product_catalog/internal/repo"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func TestListKeyDeterministic(t *testing.T) {
	f := repo.ListFilter{
		Name:     strPtr("phone"),
		MinPrice: f64Ptr(10.5),
	}

	k1 := ListKey("alice", 2, 20, f)
	k2 := ListKey("alice", 2, 20, repo.ListFilter{
		Name:     strPtr("phone"),
		MinPrice: f64Ptr(10.5),
	})

	require.Equal(t, k1, k2)
}

func TestListKeyDiffersPerComponent(t *testing.T) {
	base := func() (string, int, int, repo.ListFilter) {
		return "alice", 1, 10, repo.ListFilter{
			Name:     strPtr("phone"),
			Category: strPtr("electronics"),
			MinPrice: f64Ptr(5),
			MaxPrice: f64Ptr(100),
		}
	}

	identity, page, size, f := base()
	ref := ListKey(identity, page, size, f)

	variants := []string{
		ListKey("bob", page, size, f),
		ListKey(identity, 2, size, f),
		ListKey(identity, page, 25, f),
	}

	_, _, _, f2 := base()
	f2.Name = strPtr("laptop")
	variants = append(variants, ListKey(identity, page, size, f2))

	_, _, _, f3 := base()
	f3.Category = nil
	variants = append(variants, ListKey(identity, page, size, f3))

	_, _, _, f4 := base()
	f4.MinPrice = f64Ptr(6)
	variants = append(variants, ListKey(identity, page, size, f4))

	_, _, _, f5 := base()
	f5.MaxPrice = nil
	variants = append(variants, ListKey(identity, page, size, f5))

	for _, v := range variants {
		require.NotEqual(t, ref, v)
	}
}

func TestListKeyDelimiterInFilterValues(t *testing.T) {
	// A raw delimiter inside one filter value must not shift the remaining
	// components: these two filter sets are different queries.
	k1 := ListKey("alice", 1, 10, repo.ListFilter{
		Name:     strPtr("a|b"),
		Category: strPtr("c"),
	})
	k2 := ListKey("alice", 1, 10, repo.ListFilter{
		Name:     strPtr("a"),
		Category: strPtr("b|c"),
	})
	require.NotEqual(t, k1, k2)

	// A filter value must not smuggle a glob metacharacter into the key.
	starred := ListKey("alice", 1, 10, repo.ListFilter{Name: strPtr("*")})
	ok, err := path.Match(starred, ListKey("alice", 1, 10, repo.ListFilter{Name: strPtr("anything")}))
	require.NoError(t, err)
	require.False(t, ok)

	// The identity wildcard still covers delimiter-bearing filter values.
	ok, err = path.Match(ListWildcard("alice"), k1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = path.Match(ListWildcard("bob"), k1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListKeyAbsentVsZero(t *testing.T) {
	absent := ListKey("alice", 1, 10, repo.ListFilter{})
	zero := ListKey("alice", 1, 10, repo.ListFilter{MinPrice: f64Ptr(0)})
	empty := ListKey("alice", 1, 10, repo.ListFilter{Name: strPtr("")})

	require.NotEqual(t, absent, zero)
	require.NotEqual(t, absent, empty)
}

func TestListWildcardMatchesOwnKeysOnly(t *testing.T) {
	aliceKeys := []string{
		ListKey("alice", 1, 10, repo.ListFilter{}),
		ListKey("alice", 3, 50, repo.ListFilter{Name: strPtr("x"), MinPrice: f64Ptr(0)}),
	}
	bobKeys := []string{
		ListKey("bob", 1, 10, repo.ListFilter{}),
		ListKey("bob_alice", 1, 10, repo.ListFilter{}),
	}

	pattern := ListWildcard("alice")
	for _, k := range aliceKeys {
		ok, err := path.Match(pattern, k)
		require.NoError(t, err)
		require.True(t, ok, "wildcard must match %q", k)
	}
	for _, k := range bobKeys {
		ok, err := path.Match(pattern, k)
		require.NoError(t, err)
		require.False(t, ok, "wildcard must not match %q", k)
	}

	all := ListWildcardAll()
	for _, k := range append(aliceKeys, bobKeys...) {
		ok, err := path.Match(all, k)
		require.NoError(t, err)
		require.True(t, ok, "global wildcard must match %q", k)
	}
}
