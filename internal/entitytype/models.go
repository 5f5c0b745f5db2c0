package entitytype

type Category string

const (
	CategoryMining        Category = "mining"
	CategoryStorage       Category = "storage_building"
	CategoryTransporter   Category = "transporter"
	CategoryManipulator   Category = "manipulator"
	CategoryDecorative    Category = "decorative"
	CategoryRelief        Category = "relief"
	CategoryTree          Category = "tree"
	CategoryShipComponent Category = "ship_component"
	CategoryOther         Category = "other"
)

var categories = map[Category]struct{}{
	CategoryMining:        {},
	CategoryStorage:       {},
	CategoryTransporter:   {},
	CategoryManipulator:   {},
	CategoryDecorative:    {},
	CategoryRelief:        {},
	CategoryTree:          {},
	CategoryShipComponent: {},
	CategoryOther:         {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// WorldGenerated reports whether entities of this category only come from
// world generation.
func (c Category) WorldGenerated() bool {
	return c == CategoryDecorative || c == CategoryRelief || c == CategoryTree
}

type Cost struct {
	ResourceID int   `json:"resource_id" yaml:"resource_id"`
	Quantity   int64 `json:"quantity" yaml:"quantity"`
}

// Spec is the static description of an entity type.
type Spec struct {
	ID                  int      `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name"`
	Category            Category `json:"category" yaml:"category"`
	Width               int      `json:"width" yaml:"width"`
	Height              int      `json:"height" yaml:"height"`
	Costs               []Cost   `json:"costs" yaml:"costs"`
	ConvertsToLandingID *int     `json:"converts_to_landing_id,omitempty" yaml:"converts_to_landing_id"`
	ReachDistance       int      `json:"reach_distance,omitempty" yaml:"reach_distance"`
	SightRadius         int      `json:"sight_radius,omitempty" yaml:"sight_radius"`
	Durability          int      `json:"durability" yaml:"durability"`
	// Extracts lists the deposit families a mining building accepts.
	Extracts []string `json:"extracts,omitempty" yaml:"extracts"`
}

func (s *Spec) CanExtract(family string) bool {
	for _, f := range s.Extracts {
		if f == family {
			return true
		}
	}
	return false
}

type Resource struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DepositType maps a deposit to the resource it yields and its extraction family.
type DepositType struct {
	ID         int    `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	ResourceID int    `json:"resource_id" yaml:"resource_id"`
	Family     string `json:"family" yaml:"family"`
}
