package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/jobgrid/internal/config"
	"github.com/vk/jobgrid/internal/entry"
	"github.com/vk/jobgrid/internal/registry"
)

func testRegistry(t *testing.T, runners ...string) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, name := range runners {
		r.Register(name, &registry.Handler{
			Fn: func(context.Context, any) (any, error) { return nil, nil },
		})
	}
	return r
}

func TestBuild_CreatesJobsAndGroups(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Jobs: []*config.Job{
			{Runner: "print", Name: "hello"},
			{Runner: "print", Name: "world", DependsOn: []string{"print.hello"}},
		},
		Groups: []*config.Group{
			{Name: "all", Members: []string{"print.hello", "print.world"}, Wait: true},
		},
	}

	g, err := Build(context.Background(), p, testRegistry(t, "print"), entry.NewDependencyTable())
	require.NoError(t, err)

	require.Len(t, g.Jobs, 2)
	require.Len(t, g.Groups, 1)
	require.Len(t, g.WaitGroups, 1)

	hello := g.Jobs["job.print.hello"]
	world := g.Jobs["job.print.world"]
	require.NotNil(t, hello)
	require.NotNil(t, world)
	require.Equal(t, int32(0), hello.DependencyCount())
	require.Equal(t, int32(1), world.DependencyCount(), "depends_on must raise the counter")

	all := g.Groups["group.all"]
	require.NotNil(t, all)
	require.Equal(t, int32(2), all.DependencyCount(), "each static member must raise the counter")
}

func TestBuild_GroupWithoutWaitIsNotAWaitGroup(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Jobs:   []*config.Job{{Runner: "print", Name: "a"}},
		Groups: []*config.Group{{Name: "bg", Members: []string{"print.a"}}},
	}

	g, err := Build(context.Background(), p, testRegistry(t, "print"), entry.NewDependencyTable())
	require.NoError(t, err)
	require.Empty(t, g.WaitGroups)
	require.Contains(t, g.Groups, "group.bg")
}

func TestBuild_UnknownRunner(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Jobs: []*config.Job{{Runner: "teleport", Name: "x"}},
	}

	_, err := Build(context.Background(), p, testRegistry(t), entry.NewDependencyTable())
	require.ErrorContains(t, err, `unknown runner "teleport"`)
}

func TestBuild_DuplicateJobDefinition(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Jobs: []*config.Job{
			{Runner: "print", Name: "same"},
			{Runner: "print", Name: "same"},
		},
	}

	_, err := Build(context.Background(), p, testRegistry(t, "print"), entry.NewDependencyTable())
	require.ErrorContains(t, err, `duplicate job definition "job.print.same"`)
}

func TestBuild_DuplicateGroupDefinition(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Groups: []*config.Group{
			{Name: "g"},
			{Name: "g"},
		},
	}

	_, err := Build(context.Background(), p, testRegistry(t), entry.NewDependencyTable())
	require.ErrorContains(t, err, `duplicate group definition "group.g"`)
}

func TestBuild_UndefinedDependencyReference(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Jobs: []*config.Job{
			{Runner: "print", Name: "a", DependsOn: []string{"print.ghost"}},
		},
	}

	_, err := Build(context.Background(), p, testRegistry(t, "print"), entry.NewDependencyTable())
	require.ErrorContains(t, err, `reference to undefined job "job.print.ghost"`)
}

func TestBuild_UndefinedGroupMember(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Groups: []*config.Group{
			{Name: "g", Members: []string{"group.missing"}},
		},
	}

	_, err := Build(context.Background(), p, testRegistry(t), entry.NewDependencyTable())
	require.ErrorContains(t, err, `reference to undefined group "group.missing"`)
}

func TestBuild_CycleDetection(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Jobs: []*config.Job{
			{Runner: "print", Name: "a", DependsOn: []string{"print.b"}},
			{Runner: "print", Name: "b", DependsOn: []string{"print.a"}},
		},
	}

	_, err := Build(context.Background(), p, testRegistry(t, "print"), entry.NewDependencyTable())
	require.ErrorContains(t, err, "cycle detected")
}

func TestBuild_GroupMemberOfItself(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Groups: []*config.Group{
			{Name: "self", Members: []string{"group.self"}},
		},
	}

	_, err := Build(context.Background(), p, testRegistry(t), entry.NewDependencyTable())
	require.Error(t, err)
}
