package rules

// Pack is a named selection of policies activated together for one
// compliance objective.
type Pack struct {
	Name        string
	Description string
	Criteria    Criteria
}

// Select returns the records of reg that belong to the pack, in registration
// order.
func (p Pack) Select(reg *Registry) []Record {
	return reg.Filter(p.Criteria)
}
