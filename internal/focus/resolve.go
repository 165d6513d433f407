package focus

// Renderers maps each target variant to a render function. Home is required;
// any other nil entry falls back to Home, so a surface that has not built a
// panel yet shows the dashboard instead of nothing.
type Renderers[T any] struct {
	Home             func() T
	System           func(System) T
	ContractorList   func(ContractorList) T
	ContractorDetail func(ContractorDetail) T
	Maintenance      func() T
	CapitalPlan      func() T
}

// Resolve dispatches t to its renderer.
func Resolve[T any](t Target, r Renderers[T]) T {
	switch v := canonical(t).(type) {
	case System:
		if r.System != nil {
			return r.System(v)
		}
	case ContractorList:
		if r.ContractorList != nil {
			return r.ContractorList(v)
		}
	case ContractorDetail:
		if r.ContractorDetail != nil {
			return r.ContractorDetail(v)
		}
	case Maintenance:
		if r.Maintenance != nil {
			return r.Maintenance()
		}
	case CapitalPlan:
		if r.CapitalPlan != nil {
			return r.CapitalPlan()
		}
	}
	// HOME, nil, and unimplemented variants
	return r.Home()
}
