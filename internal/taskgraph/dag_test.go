package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDAG_AddEdge(t *testing.T) {
	dag := NewDAG()
	dag.AddEdge("task1", "task2")

	assert.True(t, dag.nodes["task1"])
	assert.True(t, dag.nodes["task2"])
	assert.Equal(t, []string{"task2"}, dag.edges["task1"])
	assert.Equal(t, 1, dag.inDegree["task1"])
	assert.Equal(t, 0, dag.inDegree["task2"])

	dag.AddNode("task1")
	assert.Equal(t, 1, dag.inDegree["task1"], "re-adding a node keeps its edges")
}

func TestDAG_TopologicalSort(t *testing.T) {
	tests := []struct {
		name    string
		edges   [][2]string
		nodes   []string
		want    []string
		blocked []string
	}{
		{
			name:  "chain",
			edges: [][2]string{{"task1", "task2"}, {"task2", "task3"}},
			want:  []string{"task3", "task2", "task1"},
		},
		{
			name:  "lexical tie-break",
			nodes: []string{"c", "a", "b"},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "diamond",
			edges: [][2]string{{"d", "b"}, {"d", "c"}, {"b", "a"}, {"c", "a"}},
			want:  []string{"a", "b", "c", "d"},
		},
		{
			name:    "cycle",
			edges:   [][2]string{{"a", "b"}, {"b", "a"}, {"c", "a"}},
			nodes:   []string{"z"},
			blocked: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dag := NewDAG()
			for _, n := range tt.nodes {
				dag.AddNode(n)
			}
			for _, e := range tt.edges {
				dag.AddEdge(e[0], e[1])
			}

			sorted, blocked := dag.TopologicalSort()
			assert.Equal(t, tt.want, sorted)
			assert.Equal(t, tt.blocked, blocked)
		})
	}
}
