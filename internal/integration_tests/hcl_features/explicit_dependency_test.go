package hcl_features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/jobgrid/internal/testutil"
)

// Test for: explicit dependency ordering through depends_on.
func TestHclFeatures_ExplicitDependency(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			job "sleeper" "A" {
				arguments {
					id = "A"
				}
			}

			job "sleeper" "B" {
				arguments {
					id = "B"
				}
				depends_on = ["sleeper.A"]
			}
		`,
	}
	sleeper := testutil.NewMockSleeperModule(nil, 20*time.Millisecond)

	// --- Act ---
	result := testutil.RunPipelineTest(t, files, sleeper)

	// --- Assert ---
	require.NoError(t, result.Err)

	times := sleeper.ExecutionTimes()
	recA, okA := times["A"]
	recB, okB := times["B"]
	require.True(t, okA, "job A should have executed")
	require.True(t, okB, "job B should have executed")
	require.False(t, recB.Start.Before(recA.End),
		"B must not start before A finished. A ended %v, B started %v", recA.End, recB.Start)
}

// Test for: a chain through a group reference. The downstream job's
// depends_on names the group, so it waits for every member.
func TestHclFeatures_DependencyOnGroup(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			job "sleeper" "one" {
				arguments {
					id = "one"
				}
			}

			job "sleeper" "two" {
				arguments {
					id = "two"
				}
			}

			group "pair" {
				members = ["sleeper.one", "sleeper.two"]
			}

			job "sleeper" "after" {
				arguments {
					id = "after"
				}
				depends_on = ["group.pair"]
			}
		`,
	}
	sleeper := testutil.NewMockSleeperModule(nil, 20*time.Millisecond)

	// --- Act ---
	result := testutil.RunPipelineTest(t, files, sleeper)

	// --- Assert ---
	require.NoError(t, result.Err)

	times := sleeper.ExecutionTimes()
	require.Len(t, times, 3)
	for _, member := range []string{"one", "two"} {
		require.False(t, times["after"].Start.Before(times[member].End),
			"job after the group barrier must not start before member %q finished", member)
	}
}
