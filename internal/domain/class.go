package domain

type Role string

const (
	RoleTank   Role = "tank"
	RoleHealer Role = "healer"
	RoleMelee  Role = "mdps"
	RoleRanged Role = "rdps"
)

type Spec struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type wowClass struct {
	slug  string
	specs []Spec
}

// keyed by WarcraftLogs classID
var classes = map[int]wowClass{
	1:  {"deathknight", []Spec{{"Blood", RoleTank}, {"Frost", RoleMelee}, {"Unholy", RoleMelee}}},
	2:  {"druid", []Spec{{"Balance", RoleRanged}, {"Feral", RoleMelee}, {"Guardian", RoleTank}, {"Restoration", RoleHealer}}},
	3:  {"hunter", []Spec{{"BeastMastery", RoleRanged}, {"Marksmanship", RoleRanged}, {"Survival", RoleMelee}}},
	4:  {"mage", []Spec{{"Arcane", RoleRanged}, {"Fire", RoleRanged}, {"Frost", RoleRanged}}},
	5:  {"monk", []Spec{{"Brewmaster", RoleTank}, {"Mistweaver", RoleHealer}, {"Windwalker", RoleMelee}}},
	6:  {"paladin", []Spec{{"Holy", RoleHealer}, {"Protection", RoleTank}, {"Retribution", RoleMelee}}},
	7:  {"priest", []Spec{{"Discipline", RoleHealer}, {"Holy", RoleHealer}, {"Shadow", RoleRanged}}},
	8:  {"rogue", []Spec{{"Assassination", RoleMelee}, {"Outlaw", RoleMelee}, {"Subtlety", RoleMelee}}},
	9:  {"shaman", []Spec{{"Elemental", RoleRanged}, {"Enhancement", RoleMelee}, {"Restoration", RoleHealer}}},
	10: {"warlock", []Spec{{"Affliction", RoleRanged}, {"Demonology", RoleRanged}, {"Destruction", RoleRanged}}},
	11: {"warrior", []Spec{{"Arms", RoleMelee}, {"Fury", RoleMelee}, {"Protection", RoleTank}}},
	12: {"demonhunter", []Spec{{"Havoc", RoleMelee}, {"Vengeance", RoleTank}}},
	13: {"evoker", []Spec{{"Devastation", RoleRanged}, {"Augmentation", RoleRanged}, {"Preservation", RoleHealer}}},
}

func ClassName(classID int) string {
	if c, ok := classes[classID]; ok {
		return c.slug
	}
	return "UnknownClass"
}

func ClassSpecs(classID int) []Spec {
	c, ok := classes[classID]
	if !ok {
		return nil
	}
	return append([]Spec(nil), c.specs...)
}
