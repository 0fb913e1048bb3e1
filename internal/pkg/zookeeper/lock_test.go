package zookeeper

import (
	"sort"
	"testing"
)

func TestSequenceOrdersProtectedNodes(t *testing.T) {
	nodes := []string{
		"_c_9f1c-lock-0000000003",
		"_c_01ab-lock-0000000001",
		"_c_ffee-lock-0000000002",
	}
	sort.Slice(nodes, func(i, j int) bool { return sequence(nodes[i]) < sequence(nodes[j]) })
	if nodes[0] != "_c_01ab-lock-0000000001" || nodes[2] != "_c_9f1c-lock-0000000003" {
		t.Fatalf("unexpected order: %v", nodes)
	}
}
