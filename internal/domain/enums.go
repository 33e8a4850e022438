package domain

import (
	"regexp"
	"strconv"
)

type Region string

const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
)

func (r Region) Valid() bool {
	return r == RegionUS || r == RegionEU
}

type Metric string

const (
	MetricDPS     Metric = "dps"
	MetricHPS     Metric = "hps"
	MetricBossDPS Metric = "bossdps"

	DefaultMetric = MetricDPS
)

func (m Metric) Valid() bool {
	switch m {
	case MetricDPS, MetricHPS, MetricBossDPS:
		return true
	}
	return false
}

func ParseMetric(s string) (Metric, bool) {
	m := Metric(s)
	return m, m.Valid()
}

type Difficulty string

const (
	DifficultyLFR    Difficulty = "LFR"
	DifficultyNormal Difficulty = "Normal"
	DifficultyHeroic Difficulty = "Heroic"
	DifficultyMythic Difficulty = "Mythic"

	DefaultDifficulty = DifficultyMythic
)

func (d Difficulty) Valid() bool {
	return d.ID() != 0
}

// ID is the numeric difficulty WarcraftLogs expects in zoneRankings.
func (d Difficulty) ID() int {
	switch d {
	case DifficultyLFR:
		return 1
	case DifficultyNormal:
		return 3
	case DifficultyHeroic:
		return 4
	case DifficultyMythic:
		return 5
	}
	return 0
}

func (d Difficulty) ShortName() string {
	switch d {
	case DifficultyLFR:
		return "LFR"
	case DifficultyNormal:
		return "N"
	case DifficultyHeroic:
		return "H"
	case DifficultyMythic:
		return "M"
	}
	return ""
}

func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(s)
	return d, d.Valid()
}

// TierKey labels a raid tier, e.g. "T31". Only T<digits> labels map to a zone.
type TierKey string

var tierPattern = regexp.MustCompile(`T(\d+)`)

func (t TierKey) ZoneID() (int, bool) {
	m := tierPattern.FindStringSubmatch(string(t))
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

var tierNames = map[TierKey]string{
	// BfA
	"T20": "Uldir",
	"T21": "Dazar'alor",
	"T22": "Crucible of Storms",
	"T23": "The Eternal Palace",
	"T24": "Ny'alotha",

	// Shadowlands
	"T26": "Castle Nathria",
	"T28": "Sanctum of Domination",
	"T29": "Sepulcher of the First Ones",

	// Dragonflight
	"T31": "Vault of the Incarnates",
	"T33": "Aberrus, the Shadowed Crucible",
}

func (t TierKey) Name() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "Unknown Tier Name"
}
