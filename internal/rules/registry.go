package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// Registry is an ordered, in-memory, append-only collection of policies.
//
// Policies are registered while the catalog loads and only read afterwards.
// Registration is serialised by a mutex so catalogs may be loaded from
// several goroutines; reads never observe a partially appended record.
type Registry struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int
}

// NewRegistry returns an empty registry ready for policy registration.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register validates meta, composes it with check into a Record, and appends
// the record. It returns check unchanged so callers can keep using it
// directly.
//
// Register returns an *InvalidDefinitionError when a required field is
// missing or invalid and a *DuplicateNameError when meta.Name is already
// registered. In both cases the registry is left unchanged.
func (r *Registry) Register(meta Metadata, check Check) (Check, error) {
	rec, err := newRecord(meta, check)
	if err != nil {
		return check, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[rec.Name]; exists {
		return check, &DuplicateNameError{Name: rec.Name}
	}
	r.index[rec.Name] = len(r.records)
	r.records = append(r.records, rec)
	return check, nil
}

// MustRegister is like Register but panics on error. Use it where a bad
// definition must abort startup.
func (r *Registry) MustRegister(meta Metadata, check Check) Check {
	if _, err := r.Register(meta, check); err != nil {
		panic(err)
	}
	return check
}

// newRecord validates meta and returns a normalised copy composed with check.
func newRecord(meta Metadata, check Check) (Record, error) {
	name := strings.TrimSpace(meta.Name)
	invalid := func(format string, args ...any) error {
		return &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf(format, args...)}
	}

	if name == "" {
		return Record{}, invalid("name is required")
	}
	if check == nil {
		return Record{}, invalid("check is required")
	}
	vendors := cleanSet(meta.Vendors)
	if len(vendors) == 0 {
		return Record{}, invalid("at least one vendor is required")
	}
	services := cleanSet(meta.Services)
	if len(services) == 0 {
		return Record{}, invalid("at least one service is required")
	}
	if !meta.Severity.Valid() {
		return Record{}, invalid("invalid severity %q", meta.Severity)
	}
	level := meta.EnforcementLevel
	if level == "" {
		level = models.EnforcementAdvisory
	}
	if !level.Valid() {
		return Record{}, invalid("invalid enforcement level %q", meta.EnforcementLevel)
	}
	kind := check.Kind()
	if !kind.IsKnown() {
		return Record{}, invalid("check declares unknown resource kind %q", kind)
	}
	if !contains(vendors, kind.Vendor()) {
		return Record{}, invalid("check kind %q does not belong to vendors %v", kind, vendors)
	}
	if err := meta.ConfigSchema.validate(); err != nil {
		return Record{}, invalid("%v", err)
	}

	meta.Name = name
	meta.Vendors = vendors
	meta.Services = services
	meta.Topics = cleanSet(meta.Topics)
	meta.Frameworks = cleanSet(meta.Frameworks)
	meta.EnforcementLevel = level
	return Record{Metadata: meta, Check: check}, nil
}

// All returns every record in registration order.
func (r *Registry) All() []Record {
	return r.Filter(Criteria{})
}

// Len returns the number of registered policies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Lookup returns the record registered under name.
func (r *Registry) Lookup(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// Names returns every registered policy name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[i] = rec.Name
	}
	return names
}

// Filter returns the records matching c in registration order. An empty
// Criteria returns every record. Filter never fails: criteria that match
// nothing produce an empty, non-nil slice.
//
// The returned slice is freshly allocated on every call. The metadata slices
// inside each record are shared with the registry and must not be modified.
func (r *Registry) Filter(c Criteria) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		if c.Matches(rec.Metadata) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterChecks is Filter reduced to the checks of the matching records.
func (r *Registry) FilterChecks(c Criteria) []Check {
	recs := r.Filter(c)
	checks := make([]Check, len(recs))
	for i, rec := range recs {
		checks[i] = rec.Check
	}
	return checks
}

// Facets lists the distinct classification values carried by registered
// policies, each sorted.
type Facets struct {
	Vendors    []string `json:"vendors"`
	Services   []string `json:"services"`
	Frameworks []string `json:"frameworks"`
	Topics     []string `json:"topics"`
}

// Facets returns the distinct vendors, services, frameworks, and topics
// across the registry.
func (r *Registry) Facets() Facets {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vendors := map[string]struct{}{}
	services := map[string]struct{}{}
	frameworks := map[string]struct{}{}
	topics := map[string]struct{}{}
	for _, rec := range r.records {
		addAll(vendors, rec.Vendors)
		addAll(services, rec.Services)
		addAll(frameworks, rec.Frameworks)
		addAll(topics, rec.Topics)
	}
	return Facets{
		Vendors:    sortedKeys(vendors),
		Services:   sortedKeys(services),
		Frameworks: sortedKeys(frameworks),
		Topics:     sortedKeys(topics),
	}
}

// UnknownCriteria returns a description of every criteria value that no
// registered policy carries, e.g. `frameworks: "pci-dss"`. Filter treats such
// values as ordinary non-matches; callers use this to warn about typos.
func (r *Registry) UnknownCriteria(c Criteria) []string {
	f := r.Facets()
	var unknown []string
	check := func(field string, values, known []string) {
		for _, v := range values {
			if !contains(known, v) {
				unknown = append(unknown, fmt.Sprintf("%s: %q", field, v))
			}
		}
	}
	check("vendors", c.Vendors, f.Vendors)
	check("services", c.Services, f.Services)
	check("frameworks", c.Frameworks, f.Frameworks)
	check("topics", c.Topics, f.Topics)
	if c.Severity != "" && !c.Severity.Valid() {
		unknown = append(unknown, fmt.Sprintf("severity: %q", c.Severity))
	}
	return unknown
}

// cleanSet trims values, drops empties and duplicates, and keeps order.
func cleanSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func addAll(set map[string]struct{}, values []string) {
	for _, v := range values {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
