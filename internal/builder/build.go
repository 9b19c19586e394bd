package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/jobgrid/internal/config"
	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/entry"
	"github.com/vk/jobgrid/internal/group"
	"github.com/vk/jobgrid/internal/job"
	"github.com/vk/jobgrid/internal/registry"
)

// Graph is the live dependency graph built from a pipeline definition. The
// builder (and through it the app) owns these objects; the scheduler only
// borrows them.
type Graph struct {
	Jobs   map[string]*job.Job
	Groups map[string]*group.Group
	// WaitGroups are the groups declared with wait = true, in declaration
	// order. The run is not finished until each has closed.
	WaitGroups []*group.Group
}

// Build constructs a validated graph from a pipeline: first pass creates
// jobs and groups, second pass wires dependency edges and group memberships
// through the shared table, then the reference graph is checked for cycles
// before anything can be submitted.
func Build(ctx context.Context, p *config.Pipeline, reg *registry.Registry, table *entry.DependencyTable) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	g := &Graph{
		Jobs:   make(map[string]*job.Job),
		Groups: make(map[string]*group.Group),
	}

	if err := createJobs(ctx, p, reg, g); err != nil {
		return nil, err
	}
	if err := createGroups(p, table, g); err != nil {
		return nil, err
	}
	logger.Debug("Build: node creation complete.", "jobs", len(g.Jobs), "groups", len(g.Groups))

	if err := linkEntries(p, table, g); err != nil {
		return nil, err
	}
	logger.Debug("Build: edge wiring complete.")

	if err := detectCycles(p); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: cycle detection passed.")

	return g, nil
}

// createJobs performs the first pass over job blocks. The runner's argument
// body is decoded lazily, inside the work function, so input structs are
// built on the worker that runs the job.
func createJobs(ctx context.Context, p *config.Pipeline, reg *registry.Registry, g *Graph) error {
	for _, jc := range p.Jobs {
		cfg := jc
		id := cfg.ID()
		if _, exists := g.Jobs[id]; exists {
			return fmt.Errorf("duplicate job definition %q", id)
		}

		h, ok := reg.Lookup(cfg.Runner)
		if !ok {
			return fmt.Errorf("unknown runner %q for job %q", cfg.Runner, id)
		}

		var jb *job.Job
		work := func(ctx context.Context) error {
			logger := ctxlog.FromContext(ctx).With("job", id)
			logger.Info("▶️ Starting job")

			var input any
			if h.NewInput != nil {
				input = h.NewInput()
				if cfg.Arguments != nil {
					if diags := gohcl.DecodeBody(cfg.Arguments.Body, nil, input); diags.HasErrors() {
						return fmt.Errorf("decoding arguments for %q: %w", id, diags)
					}
				}
			}

			out, err := h.Fn(ctx, input)
			if err != nil {
				return err
			}
			jb.SetOutput(out)

			logger.Info("✅ Finished job")
			return nil
		}
		jb = job.New(id, work)
		g.Jobs[id] = jb
	}
	return nil
}

// createGroups performs the first pass over group blocks. Groups declared
// with wait = true carry a sync event for the foreground wait.
func createGroups(p *config.Pipeline, table *entry.DependencyTable, g *Graph) error {
	for _, gc := range p.Groups {
		id := gc.ID()
		if _, exists := g.Groups[id]; exists {
			return fmt.Errorf("duplicate group definition %q", id)
		}
		grp := group.New(id, table, gc.Wait)
		g.Groups[id] = grp
		if gc.Wait {
			g.WaitGroups = append(g.WaitGroups, grp)
		}
	}
	return nil
}

// linkEntries performs the second pass: depends_on edges for jobs and static
// memberships for groups, all through the shared dependency table so the
// counters stay in lockstep with the edges.
func linkEntries(p *config.Pipeline, table *entry.DependencyTable, g *Graph) error {
	for _, jc := range p.Jobs {
		jb := g.Jobs[jc.ID()]
		for _, ref := range jc.DependsOn {
			dep, err := g.resolve(ref)
			if err != nil {
				return fmt.Errorf("job %q: %w", jc.ID(), err)
			}
			table.AddDependent(dep, jb)
		}
	}
	for _, gc := range p.Groups {
		grp := g.Groups[gc.ID()]
		for _, ref := range gc.Members {
			member, err := g.resolve(ref)
			if err != nil {
				return fmt.Errorf("group %q: %w", gc.ID(), err)
			}
			if member == grp {
				return fmt.Errorf("group %q cannot be a member of itself", gc.ID())
			}
			grp.AddStaticDependency(member)
		}
	}
	return nil
}

// resolve maps a reference string to a live entry. Job references use
// "<runner>.<name>"; group references use "group.<name>".
func (g *Graph) resolve(ref string) (entry.Entry, error) {
	if strings.HasPrefix(ref, "group.") {
		if grp, ok := g.Groups[ref]; ok {
			return grp, nil
		}
		return nil, fmt.Errorf("reference to undefined group %q", ref)
	}
	if jb, ok := g.Jobs["job."+ref]; ok {
		return jb, nil
	}
	return nil, fmt.Errorf("reference to undefined job %q", ref)
}

// detectCycles checks the reference graph for circular dependencies using
// DFS over the declaration-level adjacency: job depends_on edges and group
// memberships.
func detectCycles(p *config.Pipeline) error {
	adj := make(map[string][]string)
	for _, jc := range p.Jobs {
		for _, ref := range jc.DependsOn {
			adj[jc.ID()] = append(adj[jc.ID()], canonical(ref))
		}
	}
	for _, gc := range p.Groups {
		for _, ref := range gc.Members {
			adj[gc.ID()] = append(adj[gc.ID()], canonical(ref))
		}
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		visiting[id] = true
		for _, dep := range adj[id] {
			if visiting[dep] {
				return fmt.Errorf("cycle detected involving %q", dep)
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, id)
		visited[id] = true
		return nil
	}

	for id := range adj {
		if !visited[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// canonical normalizes a reference string to the graph identifier it points
// at.
func canonical(ref string) string {
	if strings.HasPrefix(ref, "group.") {
		return ref
	}
	return "job." + ref
}
