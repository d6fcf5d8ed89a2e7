package e2e

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/sourcenet/pkg/network"
	"github.com/dd0wney/sourcenet/pkg/setup"
)

// fullFieldDocument is the reference field: 30 production wells at -10 each
// across six 5-well areas, nine injection wells, and a ten-reinjector
// redistribution web with a chained makeup line and two steam lines sharing
// one steam well.
//
// Every well flashes at quality 0.25 (enthalpy 1000 against hl 500, hv
// 2500), so each area separates into 37.5 of water and 12.5 of steam.
func fullFieldDocument() *setup.Document {
	doc := &setup.Document{
		Network: setup.NetworkConfig{ID: "full-field"},
	}
	for i := 0; i < 30; i++ {
		doc.Sources = append(doc.Sources, setup.SourceConfig{
			Name:     fmt.Sprintf("pw%02d", i+1),
			Cell:     i,
			Rate:     -10,
			Enthalpy: 1000,
			Separator: &setup.SeparatorConfig{
				Pressure: 5,
				WaterFit: []float64{500},
				SteamFit: []float64{2500},
			},
		})
	}
	for i, max := range []float64{30, 30, 30, 30, 30, 30, 40, 20, 50} {
		doc.Sources = append(doc.Sources, setup.SourceConfig{
			Name:              fmt.Sprintf("iw%d", i+1),
			Cell:              30 + i,
			InjectionEnthalpy: 500,
			MaxInjectionRate:  max,
		})
	}
	for g := 0; g < 6; g++ {
		members := make([]string, 5)
		for i := range members {
			members[i] = fmt.Sprintf("pw%02d", g*5+i+1)
		}
		doc.Groups = append(doc.Groups, setup.GroupConfig{
			Name:    fmt.Sprintf("area-%d", g+1),
			Members: members,
		})
	}
	doc.Reinjectors = append(doc.Reinjectors,
		setup.ReinjectorConfig{
			Name:  "deepwell",
			Water: setup.LineConfig{Targets: []string{"iw8"}},
		},
		setup.ReinjectorConfig{
			Name:  "makeup",
			Water: setup.LineConfig{Targets: []string{"iw7"}, OverflowTo: "deepwell"},
		},
		setup.ReinjectorConfig{
			Name:  "steamline-1",
			Steam: setup.LineConfig{Targets: []string{"iw9"}},
		},
		setup.ReinjectorConfig{
			Name:  "steamline-2",
			Steam: setup.LineConfig{Targets: []string{"iw9"}},
		},
	)
	for g := 0; g < 6; g++ {
		steamSink := "steamline-1"
		if g >= 3 {
			steamSink = "steamline-2"
		}
		doc.Reinjectors = append(doc.Reinjectors, setup.ReinjectorConfig{
			Name:   fmt.Sprintf("rj%d", g+1),
			Inputs: []string{fmt.Sprintf("area-%d", g+1)},
			Water: setup.LineConfig{
				Targets:    []string{fmt.Sprintf("iw%d", g+1)},
				OverflowTo: "makeup",
			},
			Steam: setup.LineConfig{OverflowTo: steamSink},
		})
	}
	return doc
}

// TestFullFieldScenario steps the reference field once and checks the
// literal flows everywhere: area sums, per-well allocations, the makeup
// chain, shared steam capacity and the one unplaceable steam stream.
func TestFullFieldScenario(t *testing.T) {
	net, err := setup.Build(fullFieldDocument(), setup.Options{})
	require.NoError(t, err)
	defer net.Destroy()

	t.Log("Step 1: verifying registered topology")
	sources, groups, reinjectors := net.Counts()
	require.Equal(t, 39, sources, "source count")
	require.Equal(t, 6, groups, "group count")
	require.Equal(t, 10, reinjectors, "reinjector count")

	t.Log("Step 2: running one timestep")
	require.NoError(t, net.Step(network.Interval{Start: 0, End: 86400}))

	t.Log("Step 3: checking area sums")
	for g := 1; g <= 6; g++ {
		area, err := net.FindGroup(fmt.Sprintf("area-%d", g))
		require.NoError(t, err)
		assert.InDelta(t, -50, area.Rate(), 1e-9, "area-%d rate", g)
		assert.InDelta(t, -37.5, area.WaterRate(), 1e-9, "area-%d water", g)
		assert.InDelta(t, -12.5, area.SteamRate(), 1e-9, "area-%d steam", g)
	}

	t.Log("Step 4: checking injection well allocations")
	for i, want := range []float64{30, 30, 30, 30, 30, 30, 40, 5, 50} {
		iw, err := net.FindSource(fmt.Sprintf("iw%d", i+1))
		require.NoError(t, err)
		assert.InDelta(t, want, iw.Rate(), 1e-9, "iw%d rate", i+1)
	}

	t.Log("Step 5: checking the area reinjectors")
	for g := 1; g <= 6; g++ {
		rj, err := net.FindReinjector(fmt.Sprintf("rj%d", g))
		require.NoError(t, err)

		water, steam := rj.Incoming()
		assert.InDelta(t, 37.5, water, 1e-9, "rj%d water in", g)
		assert.InDelta(t, 12.5, steam, 1e-9, "rj%d steam in", g)

		water, steam = rj.Capacities()
		assert.InDelta(t, 90, water, 1e-9, "rj%d water capacity", g)
		assert.InDelta(t, 50, steam, 1e-9, "rj%d steam capacity", g)

		water, steam = rj.Overflow()
		assert.Zero(t, water, "rj%d water overflow", g)
		assert.Zero(t, steam, "rj%d steam overflow", g)

		assert.Equal(t, []int{29 + g}, rj.TargetCells(network.Water), "rj%d water target cells", g)
	}

	t.Log("Step 6: checking the makeup chain")
	makeup, err := net.FindReinjector("makeup")
	require.NoError(t, err)
	water, steam := makeup.Incoming()
	assert.InDelta(t, 45, water, 1e-9, "makeup water in")
	assert.Zero(t, steam, "makeup steam in")
	water, _ = makeup.Capacities()
	assert.InDelta(t, 60, water, 1e-9, "makeup water capacity")
	water, steam = makeup.Overflow()
	assert.Zero(t, water, "makeup water overflow")
	assert.Zero(t, steam, "makeup steam overflow")
	assert.Equal(t, []int{36}, makeup.TargetCells(network.Water), "makeup water target cells")

	deepwell, err := net.FindReinjector("deepwell")
	require.NoError(t, err)
	water, _ = deepwell.Incoming()
	assert.InDelta(t, 5, water, 1e-9, "deepwell water in")
	water, _ = deepwell.Capacities()
	assert.InDelta(t, 20, water, 1e-9, "deepwell water capacity")
	water, _ = deepwell.Overflow()
	assert.Zero(t, water, "deepwell water overflow")
	assert.Equal(t, []int{37}, deepwell.TargetCells(network.Water), "deepwell water target cells")

	t.Log("Step 7: checking the shared steam well")
	sl1, err := net.FindReinjector("steamline-1")
	require.NoError(t, err)
	sl2, err := net.FindReinjector("steamline-2")
	require.NoError(t, err)

	_, steam = sl2.Incoming()
	assert.InDelta(t, 37.5, steam, 1e-9, "steamline-2 steam in")
	_, steam = sl2.Overflow()
	assert.Zero(t, steam, "steamline-2 steam overflow")

	_, steam = sl1.Incoming()
	assert.InDelta(t, 37.5, steam, 1e-9, "steamline-1 steam in")
	_, steam = sl1.Capacities()
	assert.InDelta(t, 50, steam, 1e-9, "steamline-1 steam capacity")
	_, steam = sl1.Overflow()
	assert.InDelta(t, 25, steam, 1e-9, "steamline-1 steam overflow")

	assert.Equal(t, []int{38}, sl1.TargetCells(network.Steam), "steamline-1 steam target cells")
	assert.Equal(t, []int{38}, sl2.TargetCells(network.Steam), "steamline-2 steam target cells")

	t.Log("Step 8: checking field mass balance")
	injected := 0.0
	for i := 1; i <= 9; i++ {
		iw, err := net.FindSource(fmt.Sprintf("iw%d", i))
		require.NoError(t, err)
		injected += iw.Rate()
	}
	_, unplaced := sl1.Overflow()
	assert.InDelta(t, 300, injected+unplaced, 1e-9, "injected plus overflow matches production")

	t.Log("Step 9: repeating the step reproduces the same field state")
	require.NoError(t, net.Step(network.Interval{Start: 86400, End: 172800}))
	iw7, err := net.FindSource("iw7")
	require.NoError(t, err)
	assert.InDelta(t, 40, iw7.Rate(), 1e-9, "iw7 rate after second step")
	_, steam = sl1.Overflow()
	assert.InDelta(t, 25, steam, 1e-9, "steam overflow after second step")
}
