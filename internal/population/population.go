// Package population provides the role-partitioned registry over the agent
// set: O(1) lookup by ID, per-role lists, construction-time validation, and
// one-shot eviction of bankrupt agents from their role list.
package population

import (
	"fmt"

	"github.com/talgya/chainflow/internal/agent"
)

// Population owns the agent set for one simulation run.
type Population struct {
	agents []*agent.Agent
	index  map[agent.ID]*agent.Agent

	retailers     []*agent.Agent
	manufacturers []*agent.Agent
	suppliers     []*agent.Agent
}

// New validates the agent list and builds the registry. Construction fails
// on a duplicate ID or when any of the three tiers is empty; both are fatal
// configuration errors, checked before a run starts.
func New(list []*agent.Agent) (*Population, error) {
	p := &Population{
		agents: list,
		index:  make(map[agent.ID]*agent.Agent, len(list)),
	}

	for _, a := range list {
		if _, dup := p.index[a.ID]; dup {
			return nil, fmt.Errorf("population: duplicate agent id %d", a.ID)
		}
		p.index[a.ID] = a

		switch a.Role {
		case agent.Retailer:
			p.retailers = append(p.retailers, a)
		case agent.Manufacturer:
			p.manufacturers = append(p.manufacturers, a)
		case agent.Supplier:
			p.suppliers = append(p.suppliers, a)
		default:
			return nil, fmt.Errorf("population: agent %d has invalid role %d", a.ID, uint8(a.Role))
		}
	}

	if len(p.retailers) == 0 || len(p.manufacturers) == 0 || len(p.suppliers) == 0 {
		return nil, fmt.Errorf("population: every tier must be non-empty (retailers=%d manufacturers=%d suppliers=%d)",
			len(p.retailers), len(p.manufacturers), len(p.suppliers))
	}

	return p, nil
}

// Agents returns all agents, bankrupt ones included.
func (p *Population) Agents() []*agent.Agent {
	return p.agents
}

// ByID returns the agent with the given ID.
func (p *Population) ByID(id agent.ID) (*agent.Agent, bool) {
	a, ok := p.index[id]
	return a, ok
}

// MustByID returns the agent with the given ID and panics if it does not
// exist; a dangling counterparty reference is a programming error.
func (p *Population) MustByID(id agent.ID) *agent.Agent {
	a, ok := p.index[id]
	if !ok {
		panic(fmt.Sprintf("population: unknown agent id %d", id))
	}
	return a
}

// Retailers returns the live retailer list. The returned slice is a
// read-only view; callers must not mutate it.
func (p *Population) Retailers() []*agent.Agent { return p.retailers }

// Manufacturers returns the live manufacturer list.
func (p *Population) Manufacturers() []*agent.Agent { return p.manufacturers }

// Suppliers returns the live supplier list.
func (p *Population) Suppliers() []*agent.Agent { return p.suppliers }

// Evict removes a bankrupt agent from its role list. Eviction happens
// exactly once; the agent stays in the registry and in Agents() so recorded
// history remains addressable.
func (p *Population) Evict(a *agent.Agent) {
	switch a.Role {
	case agent.Retailer:
		p.retailers = remove(p.retailers, a.ID)
	case agent.Manufacturer:
		p.manufacturers = remove(p.manufacturers, a.ID)
	case agent.Supplier:
		p.suppliers = remove(p.suppliers, a.ID)
	}
}

func remove(list []*agent.Agent, id agent.ID) []*agent.Agent {
	for i, a := range list {
		if a.ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
