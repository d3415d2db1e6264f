package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "1баэн1", NormalizeName(" 1бАЭн 1\n"))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Группа 1бАЭн1", []string{"1баэн"}))
	require.False(t, MatchName("2бАСУ1", []string{"1баэн"}))
}

func TestRankNames(t *testing.T) {
	groups := []string{"1бАЭн1", "1бАЭн2", "2бАСУ1", "3вДМ2"}

	matches := RankNames("1баэн", groups, 0)
	require.Len(t, matches, 2)
	require.Equal(t, "1бАЭн1", matches[0].Name)
	require.Equal(t, "1бАЭн2", matches[1].Name)
	require.Equal(t, 1.0, matches[0].Score)

	// a typo still finds the group, ranked ahead of the weaker sibling.
	matches = RankNames("1бАЭм1", groups, 1)
	require.Len(t, matches, 1)
	require.Equal(t, "1бАЭн1", matches[0].Name)

	require.Empty(t, RankNames("   ", groups, 0))
	require.Empty(t, RankNames("zzzzzz", groups, 0))
}
