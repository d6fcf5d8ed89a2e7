package setup

import (
	"fmt"

	"github.com/dd0wney/sourcenet/pkg/comm"
	"github.com/dd0wney/sourcenet/pkg/network"
)

// SyncOver builds a network sync hook from a communicator. Source and group
// totals are summed element-wise across ranks, turning each rank's partial
// sums into the global values before redistribution runs.
func SyncOver(c comm.Communicator) network.SyncFunc {
	return func(n *network.SourceNetwork) error {
		merged, err := c.SumAll(n.Totals())
		if err != nil {
			return fmt.Errorf("merging network totals: %w", err)
		}
		return n.SetTotals(merged)
	}
}

// ReduceDependencies merges per-rank dependency pairs onto root. The caller
// runs BuildDependencies on every rank first; the merged pair list comes
// back on root and nil elsewhere.
func ReduceDependencies(c comm.Communicator, n *network.SourceNetwork, equations, cells, root int) ([]network.Dependency, error) {
	local, err := n.Dependencies().Matrix(equations, cells)
	if err != nil {
		return nil, err
	}
	merged, err := c.ReduceOr(local, root)
	if err != nil {
		return nil, fmt.Errorf("merging dependency matrix: %w", err)
	}
	if merged == nil {
		return nil, nil
	}
	return network.DependenciesFromMatrix(merged), nil
}
