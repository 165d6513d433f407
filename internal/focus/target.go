package focus

// #region kind

// Kind discriminates focus targets.
type Kind string

const (
	KindHome             Kind = "home"
	KindSystem           Kind = "system"
	KindContractorList   Kind = "contractor_list"
	KindContractorDetail Kind = "contractor_detail"
	KindMaintenance      Kind = "maintenance"
	KindCapitalPlan      Kind = "capital_plan"
)

// #endregion kind

// #region targets

// Target is the detail panel that is open. The set of variants is closed:
// only types in this package implement it.
type Target interface {
	Kind() Kind
	target()
}

// Home is the default dashboard with no detail panel open.
type Home struct{}

// System is a single home system's detail panel. Tab is empty when unset.
type System struct {
	SystemID string `json:"system_id"`
	Tab      string `json:"tab,omitempty"`
}

// ContractorList is a contractor search, optionally scoped to a system.
type ContractorList struct {
	Query    string `json:"query"`
	SystemID string `json:"system_id,omitempty"`
}

// ContractorDetail is one contractor's profile.
type ContractorDetail struct {
	ContractorID string `json:"contractor_id"`
}

// Maintenance is the maintenance task list.
type Maintenance struct{}

// CapitalPlan is the capital replacement timeline.
type CapitalPlan struct{}

func (Home) Kind() Kind             { return KindHome }
func (System) Kind() Kind           { return KindSystem }
func (ContractorList) Kind() Kind   { return KindContractorList }
func (ContractorDetail) Kind() Kind { return KindContractorDetail }
func (Maintenance) Kind() Kind      { return KindMaintenance }
func (CapitalPlan) Kind() Kind      { return KindCapitalPlan }

func (Home) target()             {}
func (System) target()           {}
func (ContractorList) target()   {}
func (ContractorDetail) target() {}
func (Maintenance) target()      {}
func (CapitalPlan) target()      {}

// IsHome reports whether t is the home target. A nil target, or a nil pointer
// to any variant, counts as home.
func IsHome(t Target) bool {
	t = canonical(t)
	return t == nil || t.Kind() == KindHome
}

// canonical converts pointer variants to their value form so the stack and
// Resolve only ever see values. Nil pointers become Home.
func canonical(t Target) Target {
	switch v := t.(type) {
	case *Home:
		return Home{}
	case *System:
		if v == nil {
			return Home{}
		}
		return *v
	case *ContractorList:
		if v == nil {
			return Home{}
		}
		return *v
	case *ContractorDetail:
		if v == nil {
			return Home{}
		}
		return *v
	case *Maintenance:
		if v == nil {
			return Home{}
		}
		return Maintenance{}
	case *CapitalPlan:
		if v == nil {
			return Home{}
		}
		return CapitalPlan{}
	}
	return t
}

// #endregion targets
