package config

import "github.com/hashicorp/hcl/v2"

// Pipeline is the root of a parsed pipeline definition: the jobs to run and
// the groups that synchronize over them. Multiple files merge into one
// Pipeline before the graph is built.
type Pipeline struct {
	Jobs   []*Job   `hcl:"job,block"`
	Groups []*Group `hcl:"group,block"`
}

// Job declares one unit of work: which runner executes it, its arguments,
// and the jobs it must wait for.
type Job struct {
	// Runner names the registered handler that executes this job.
	Runner string `hcl:"runner,label"`
	// Name is the instance name; Runner plus Name must be unique.
	Name string `hcl:"name,label"`
	// Arguments carries the raw body decoded into the runner's input struct
	// at execution time.
	Arguments *Arguments `hcl:"arguments,block"`
	// DependsOn lists upstream references as "<runner>.<name>" (or
	// "group.<name>" for a barrier).
	DependsOn []string `hcl:"depends_on,optional"`
}

// Arguments defers decoding of a job's argument body until the runner's
// input type is known.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Group declares a synchronization barrier over a set of members.
type Group struct {
	Name string `hcl:"name,label"`
	// Members lists the entries the barrier counts, using the same
	// reference syntax as DependsOn.
	Members []string `hcl:"members"`
	// Wait marks the group as a foreground barrier: the run does not finish
	// until the group closes, and the group carries a sync event.
	Wait bool `hcl:"wait,optional"`
}

// ID returns the canonical graph identifier of the job.
func (j *Job) ID() string {
	return "job." + j.Runner + "." + j.Name
}

// ID returns the canonical graph identifier of the group.
func (g *Group) ID() string {
	return "group." + g.Name
}
