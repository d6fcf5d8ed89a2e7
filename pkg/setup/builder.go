package setup

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dd0wney/sourcenet/pkg/comm"
	"github.com/dd0wney/sourcenet/pkg/logging"
	"github.com/dd0wney/sourcenet/pkg/metrics"
	"github.com/dd0wney/sourcenet/pkg/network"
	"github.com/dd0wney/sourcenet/pkg/numerics"
)

var (
	// ErrSeparatorSpec marks a separator with neither an operating
	// pressure nor a solvable design point.
	ErrSeparatorSpec = errors.New("separator needs a pressure, or a design quality with reference enthalpy and initial pressure")
	// ErrUnknownMode marks an unrecognised control table mode.
	ErrUnknownMode = errors.New("unknown table mode")
)

// Options carries the runtime inputs a configuration document cannot know:
// global equation numbering, rank identity, and the driver's hooks.
type Options struct {
	// EquationBases locate the network unknowns in the global equation
	// numbering. The driver computes them once the mesh is distributed.
	EquationBases network.EquationBases
	// Comm, when set, supplies rank identity and the cross-rank merge
	// used after local updates. Nil builds a single-rank network.
	Comm comm.Communicator
	// LocalRank is this process's rank when Comm is nil. With a
	// communicator the communicator's rank wins.
	LocalRank int
	// Enthalpies, when set, replaces the flowing enthalpy of each source
	// from its cell every step, except sources marked fixed_enthalpy.
	Enthalpies network.EnthalpyOverride
	// Logger receives build and engine logging. Nil discards output.
	Logger logging.Logger
	// Metrics receives build and engine instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// Build constructs and finalizes a network from a validated document.
// Registration follows document order exactly. On any error the partially
// built network is destroyed and only the error is returned.
func Build(doc *Document, opts Options) (*network.SourceNetwork, error) {
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	id := doc.Network.ID
	if id == "" {
		id = uuid.NewString()
	}
	localRank := opts.LocalRank
	var sync network.SyncFunc
	if opts.Comm != nil {
		localRank = opts.Comm.Rank()
		if opts.Comm.Size() > 1 {
			sync = SyncOver(opts.Comm)
		}
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	b := &builder{
		doc:  doc,
		opts: opts,
		log:  log.With(logging.Component("setup"), logging.Network(id)),
		net: network.New(network.Params{
			ID:            id,
			LocalRank:     localRank,
			EquationBases: opts.EquationBases,
			Sync:          sync,
			Logger:        opts.Logger,
			Metrics:       opts.Metrics,
		}),
		declared: make(map[string]bool, len(doc.Reinjectors)),
	}
	for i := range doc.Reinjectors {
		b.declared[doc.Reinjectors[i].Name] = true
	}

	if err := b.build(); err != nil {
		b.net.Destroy()
		return nil, err
	}
	return b.net, nil
}

type builder struct {
	doc  *Document
	opts Options
	net  *network.SourceNetwork
	log  logging.Logger

	// declared holds every reinjector name in the document, registered or
	// not, to diagnose overflow links that point forward.
	declared map[string]bool
}

func (b *builder) build() error {
	for i := range b.doc.Sources {
		if err := b.addSource(&b.doc.Sources[i]); err != nil {
			return err
		}
	}
	for i := range b.doc.Groups {
		if err := b.addGroup(&b.doc.Groups[i]); err != nil {
			return err
		}
	}
	for i := range b.doc.Reinjectors {
		if err := b.addReinjector(&b.doc.Reinjectors[i]); err != nil {
			return err
		}
	}
	for i := range b.doc.Controls {
		if err := b.addControl(&b.doc.Controls[i]); err != nil {
			return err
		}
	}
	if err := b.net.Finalize(); err != nil {
		return err
	}

	sources, groups, reinjectors := b.net.Counts()
	b.log.Info("network built",
		logging.Int("sources", sources),
		logging.Int("groups", groups),
		logging.Int("reinjectors", reinjectors),
		logging.Int("controls", len(b.doc.Controls)))
	return nil
}

func (b *builder) addSource(cfg *SourceConfig) error {
	sep, err := b.separatorFrom(cfg)
	if err != nil {
		return err
	}
	var override network.EnthalpyOverride
	if !cfg.FixedEnthalpy {
		override = b.opts.Enthalpies
	}
	s := network.NewSource(network.SourceParams{
		Name:              cfg.Name,
		OwningRank:        cfg.Rank,
		CellIndex:         cfg.Cell,
		Rate:              cfg.Rate,
		Enthalpy:          cfg.Enthalpy,
		InjectionEnthalpy: cfg.InjectionEnthalpy,
		MaxRate:           cfg.MaxInjectionRate,
		Separator:         sep,
		Override:          override,
	})
	_, err = b.net.AddSource(s)
	return err
}

func (b *builder) addGroup(cfg *GroupConfig) error {
	members := make([]network.Node, len(cfg.Members))
	for i, name := range cfg.Members {
		node, err := b.net.FindNode(name)
		if err != nil {
			return network.NewError("build").Group(cfg.Name).
				Context(fmt.Sprintf("member %q", name)).Cause(err).Err()
		}
		members[i] = node
	}
	g := network.NewGroup(network.GroupParams{
		Name:       cfg.Name,
		OwningRank: cfg.Rank,
		Members:    members,
	})
	_, err := b.net.AddGroup(g)
	return err
}

func (b *builder) addReinjector(cfg *ReinjectorConfig) error {
	inputs := make([]network.Node, len(cfg.Inputs))
	for i, name := range cfg.Inputs {
		node, err := b.net.FindNode(name)
		if err != nil {
			return network.NewError("build").Reinjector(cfg.Name).
				Context(fmt.Sprintf("input %q", name)).Cause(err).Err()
		}
		inputs[i] = node
	}
	water, err := b.lineFrom(cfg.Name, "water", &cfg.Water)
	if err != nil {
		return err
	}
	steam, err := b.lineFrom(cfg.Name, "steam", &cfg.Steam)
	if err != nil {
		return err
	}
	r := network.NewReinjector(network.ReinjectorParams{
		Name:       cfg.Name,
		OwningRank: cfg.Rank,
		Inputs:     inputs,
		Water:      water,
		Steam:      steam,
	})
	_, err = b.net.AddReinjector(r)
	return err
}

func (b *builder) lineFrom(owner, phase string, cfg *LineConfig) (network.LineParams, error) {
	targets := make([]*network.Source, len(cfg.Targets))
	for i, name := range cfg.Targets {
		s, err := b.net.FindSource(name)
		if err != nil {
			return network.LineParams{}, network.NewError("build").Reinjector(owner).
				Context(fmt.Sprintf("%s target %q", phase, name)).Cause(err).Err()
		}
		targets[i] = s
	}
	if len(cfg.Order) > 0 {
		identity := make([]int, len(targets))
		for i := range identity {
			identity[i] = i
		}
		if !numerics.IsPermutationOf(cfg.Order, identity) {
			return network.LineParams{}, network.NewError("build").Reinjector(owner).
				Context(fmt.Sprintf("%s order %v over %d targets", phase, cfg.Order, len(targets))).
				Cause(network.ErrBadTargetOrder).Err()
		}
	}
	var sink *network.Reinjector
	if cfg.OverflowTo != "" {
		s, err := b.net.FindReinjector(cfg.OverflowTo)
		if err != nil {
			if b.declared[cfg.OverflowTo] {
				// Declared later in the document: ordering error,
				// not a missing node.
				err = network.ErrSinkNotRegistered
			}
			return network.LineParams{}, network.NewError("build").Reinjector(owner).
				Context(fmt.Sprintf("%s overflow sink %q", phase, cfg.OverflowTo)).Cause(err).Err()
		}
		sink = s
	}
	return network.LineParams{
		Targets:    targets,
		Order:      append([]int(nil), cfg.Order...),
		OverflowTo: sink,
	}, nil
}

func (b *builder) addControl(cfg *ControlConfig) error {
	s, err := b.net.FindSource(cfg.Node)
	if err != nil {
		return network.NewError("build").Control(cfg.Name).
			Context(fmt.Sprintf("node %q", cfg.Node)).Cause(err).Err()
	}
	set, err := parameterSetter(s, cfg.Parameter)
	if err != nil {
		return network.NewError("build").Control(cfg.Name).
			Context(fmt.Sprintf("parameter %q on source %q", cfg.Parameter, cfg.Node)).
			Cause(err).Err()
	}
	mode, err := tableMode(cfg.Mode)
	if err != nil {
		return network.NewError("build").Control(cfg.Name).
			Context(fmt.Sprintf("mode %q", cfg.Mode)).Cause(err).Err()
	}
	table := make([]network.TablePoint, len(cfg.Table))
	for i, p := range cfg.Table {
		table[i] = network.TablePoint{Time: p.Time, Value: p.Value}
	}
	c, err := network.NewIntervalUpdate(cfg.Name, table, mode, set)
	if err != nil {
		return err
	}
	return b.net.AddControl(c)
}

// parameterSetter maps a configuration parameter name to the setter it
// drives on the given source.
func parameterSetter(s *network.Source, parameter string) (func(float64), error) {
	switch parameter {
	case "rate":
		return s.SetRate, nil
	case "enthalpy":
		return s.SetEnthalpy, nil
	case "injection_enthalpy":
		return s.SetInjectionEnthalpy, nil
	case "max_injection_rate":
		return s.SetMaxRate, nil
	case "separator_pressure":
		if !s.Separated() {
			return nil, fmt.Errorf("%w: source has no separator", network.ErrUnknownParameter)
		}
		return s.SetSeparatorPressure, nil
	default:
		return nil, network.ErrUnknownParameter
	}
}

func tableMode(mode string) (network.TableMode, error) {
	switch mode {
	case "", "step":
		return network.ModeStep, nil
	case "endpoint":
		return network.ModeEndpoint, nil
	case "integrate":
		return network.ModeIntegrate, nil
	default:
		return 0, ErrUnknownMode
	}
}
