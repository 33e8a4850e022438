package query

import (
	"regexp"
	"strings"
	"testing"
	"wcl-rankings/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var whitespace = regexp.MustCompile(`\s+`)

func compact(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

func testIdentity() domain.Identity {
	return domain.Identity{Region: domain.RegionUS, Realm: "Area 52", CharacterName: "Thrall"}
}

func TestBuildRankingQuery_NoFilters(t *testing.T) {
	q := compact(BuildRankingQuery([]domain.TierKey{"T31", "T33"}, testIdentity(), nil))

	assert.Contains(t, q, compact("T31: zoneRankings(zoneID: 31)"))
	assert.Contains(t, q, compact("T33: zoneRankings(zoneID: 33)"))
	assert.Equal(t, 2, strings.Count(q, "zoneRankings("))
	assert.Contains(t, q, "classID")
	assert.Contains(t, q, compact(`character(serverRegion: "us", serverSlug: "Area 52", name: "Thrall")`))
}

func TestBuildRankingQuery_SkipsNonTierLabels(t *testing.T) {
	q := BuildRankingQuery([]domain.TierKey{"classID", "T31", "canonicalID"}, testIdentity(), nil)

	assert.Equal(t, 1, strings.Count(q, "zoneRankings("))
	assert.NotContains(t, q, "classID: zoneRankings")
	assert.NotContains(t, q, "canonicalID")
}

func TestBuildRankingQuery_KeepsTierOrder(t *testing.T) {
	q := BuildRankingQuery([]domain.TierKey{"T33", "T29", "T31"}, testIdentity(), nil)

	i33 := strings.Index(q, "T33:")
	i29 := strings.Index(q, "T29:")
	i31 := strings.Index(q, "T31:")
	require.True(t, i33 >= 0 && i29 >= 0 && i31 >= 0)
	assert.Less(t, i33, i29)
	assert.Less(t, i29, i31)
}

func TestBuildRankingQuery_AllFilters(t *testing.T) {
	filters := &domain.RankingFilters{
		Metric:     domain.MetricHPS,
		SpecName:   "Restoration",
		Difficulty: domain.DifficultyHeroic,
	}

	q := compact(BuildRankingQuery([]domain.TierKey{"T31"}, testIdentity(), filters))
	assert.Contains(t, q, compact(`T31: zoneRankings(zoneID: 31, metric: hps, specName: "Restoration", difficulty: 4)`))
}

func TestBuildRankingQuery_OmitsEmptyFilters(t *testing.T) {
	filters := &domain.RankingFilters{Difficulty: domain.DifficultyMythic}

	q := compact(BuildRankingQuery([]domain.TierKey{"T31"}, testIdentity(), filters))
	assert.Contains(t, q, compact("T31: zoneRankings(zoneID: 31, difficulty: 5)"))
	assert.NotContains(t, q, "metric")
	assert.NotContains(t, q, "specName")
}

func TestBuildRankingQuery_EmptyFilterStructMatchesNil(t *testing.T) {
	tiers := []domain.TierKey{"T31"}
	assert.Equal(t,
		BuildRankingQuery(tiers, testIdentity(), nil),
		BuildRankingQuery(tiers, testIdentity(), &domain.RankingFilters{}))
}

func TestBuildRankingQuery_Deterministic(t *testing.T) {
	tiers := []domain.TierKey{"T31", "T33", "bogus"}
	filters := &domain.RankingFilters{Metric: domain.MetricDPS, SpecName: "Frost"}

	first := BuildRankingQuery(tiers, testIdentity(), filters)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildRankingQuery(tiers, testIdentity(), filters))
	}
}

func TestBuildRankingQuery_EscapesStrings(t *testing.T) {
	id := domain.Identity{Region: domain.RegionEU, Realm: `Quel"Thalas`, CharacterName: "Jaina"}

	q := BuildRankingQuery(nil, id, nil)
	assert.Contains(t, q, `serverSlug: "Quel\"Thalas"`)
	assert.NotContains(t, q, "zoneRankings")
}
