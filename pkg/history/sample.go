package history

import "github.com/dd0wney/sourcenet/pkg/network"

// Sample captures the flow triple of each named node at the given
// simulation time, ready to append.
func Sample(net *network.SourceNetwork, time float64, names ...string) (Record, error) {
	values := make(map[string]Flows, len(names))
	for _, name := range names {
		node, err := net.FindNode(name)
		if err != nil {
			return Record{}, err
		}
		values[name] = Flows{
			Rate:  node.Rate(),
			Water: node.WaterRate(),
			Steam: node.SteamRate(),
		}
	}
	return Record{Time: time, Values: values}, nil
}
