package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"wcl-rankings/internal/domain"
)

// BuildRankingQuery renders the GraphQL document requesting classID and one aliased
// zoneRankings field per tier. Tiers without a zone id are skipped and tier order is kept.
func BuildRankingQuery(tiers []domain.TierKey, identity domain.Identity, filters *domain.RankingFilters) string {
	var b strings.Builder

	b.WriteString("{\n")
	b.WriteString("    characterData {\n")
	fmt.Fprintf(&b, "        character(serverRegion: %s, serverSlug: %s, name: %s) {\n",
		quote(string(identity.Region)), quote(identity.Realm), quote(identity.CharacterName))
	b.WriteString("            classID\n")

	for _, tier := range tiers {
		zoneID, ok := tier.ZoneID()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "            %s: zoneRankings(%s)\n", tier, zoneRankingArgs(zoneID, filters))
	}

	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}")

	return b.String()
}

// empty arguments are left out, the API rejects empty or null values
func zoneRankingArgs(zoneID int, filters *domain.RankingFilters) string {
	args := []string{fmt.Sprintf("zoneID: %d", zoneID)}
	if filters == nil {
		return args[0]
	}

	if filters.Metric != "" {
		args = append(args, fmt.Sprintf("metric: %s", filters.Metric))
	}
	if filters.SpecName != "" {
		args = append(args, fmt.Sprintf("specName: %s", quote(filters.SpecName)))
	}
	if id := filters.Difficulty.ID(); id != 0 {
		args = append(args, fmt.Sprintf("difficulty: %d", id))
	}

	return strings.Join(args, ", ")
}

// quote renders s as a GraphQL string literal. JSON string escaping is a subset of GraphQL's.
func quote(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(out)
}
