// Package rulepacks lists the named policy packs shipped with pcat.
package rulepacks

import (
	"sort"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/aws_dataprotection"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/aws_security"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/cis"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/dataprotection"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/docs"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/hitrust"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/iso27001"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/kubernetes_core"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/kubernetes_eks"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/pcidss"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks/security"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// All returns every built-in pack sorted by name.
func All() []rules.Pack {
	packs := []rules.Pack{
		aws_dataprotection.New(),
		aws_security.New(),
		cis.New(),
		dataprotection.New(),
		docs.New(),
		hitrust.New(),
		iso27001.New(),
		kubernetes_core.New(),
		kubernetes_eks.New(),
		pcidss.New(),
		security.New(),
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].Name < packs[j].Name })
	return packs
}

// Lookup returns the pack called name.
func Lookup(name string) (rules.Pack, bool) {
	for _, p := range All() {
		if p.Name == name {
			return p, true
		}
	}
	return rules.Pack{}, false
}

// Names returns the names of every built-in pack.
func Names() []string {
	packs := All()
	names := make([]string, len(packs))
	for i, p := range packs {
		names[i] = p.Name
	}
	return names
}
