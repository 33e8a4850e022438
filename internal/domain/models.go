package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
}

func (c Credentials) Trimmed() Credentials {
	return Credentials{
		ClientID:     strings.TrimSpace(c.ClientID),
		ClientSecret: strings.TrimSpace(c.ClientSecret),
		AccessToken:  strings.TrimSpace(c.AccessToken),
	}
}

func (c Credentials) HasKeys() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Filters are the persisted display preferences.
type Filters struct {
	Metric     Metric
	Difficulty Difficulty
}

func DefaultFilters() Filters {
	return Filters{Metric: DefaultMetric, Difficulty: DefaultDifficulty}
}

// RankingFilters are the optional zoneRankings arguments. Zero values are omitted from the query.
type RankingFilters struct {
	Metric     Metric     `json:"metric,omitempty"`
	SpecName   string     `json:"specName,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

type Identity struct {
	Region        Region `json:"region"`
	Realm         string `json:"realm"`
	CharacterName string `json:"characterName"`
}

type AllStars struct {
	Points         float64 `json:"points"`
	PossiblePoints float64 `json:"possiblePoints"`
	Rank           int     `json:"rank"`
	RankPercent    float64 `json:"rankPercent"`
}

type Encounter struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type BossRank struct {
	Encounter     Encounter `json:"encounter"`
	RankPercent   float64   `json:"rankPercent"`
	MedianPercent float64   `json:"medianPercent"`
	TotalKills    int       `json:"totalKills"`
	BestSpec      string    `json:"bestSpec"`
	BestAmount    float64   `json:"bestAmount"`
	AllStars      *AllStars `json:"allStars,omitempty"`
}

type TierInfo struct {
	Metric    string     `json:"metric"`
	Partition int        `json:"partition"`
	Zone      int        `json:"zone"`
	Rankings  []BossRank `json:"rankings"`
}

// TierResult holds either the rankings of a tier or the error WarcraftLogs reported for it.
type TierResult struct {
	Info  *TierInfo
	Error string
}

// CharacterData is the character object returned by the rankings query. Raw keeps the
// payload exactly as received.
type CharacterData struct {
	ClassID int
	Tiers   map[TierKey]TierResult
	Raw     json.RawMessage
}

func (c *CharacterData) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	decoded := CharacterData{
		Tiers: make(map[TierKey]TierResult),
		Raw:   append(json.RawMessage(nil), data...),
	}

	for key, value := range fields {
		if key == "classID" {
			if err := json.Unmarshal(value, &decoded.ClassID); err != nil {
				return err
			}
			continue
		}
		if !bytes.HasPrefix(bytes.TrimSpace(value), []byte("{")) {
			continue
		}

		var probe struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(value, &probe); err != nil {
			return err
		}
		if probe.Error != nil {
			decoded.Tiers[TierKey(key)] = TierResult{Error: *probe.Error}
			continue
		}

		var info TierInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return err
		}
		decoded.Tiers[TierKey(key)] = TierResult{Info: &info}
	}

	*c = decoded
	return nil
}

func (c CharacterData) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}

	out := map[string]any{"classID": c.ClassID}
	for key, tier := range c.Tiers {
		if tier.Info != nil {
			out[string(key)] = tier.Info
		} else {
			out[string(key)] = map[string]string{"error": tier.Error}
		}
	}
	return json.Marshal(out)
}

func (c CharacterData) ClassName() string {
	return ClassName(c.ClassID)
}
