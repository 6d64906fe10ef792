package accounts

import (
	"fmt"
	"sort"
)

// Tree is an arena of accounts indexed by id, with parents stored as
// optional indexes into the same arena. It backs descendant rollups for
// ledger queries.
type Tree struct {
	nodes    []Account
	index    map[int64]int
	children map[int64][]int64
}

// NewTree builds the arena and validates parent references.
func NewTree(accounts []Account) (*Tree, error) {
	t := &Tree{
		nodes:    make([]Account, len(accounts)),
		index:    make(map[int64]int, len(accounts)),
		children: make(map[int64][]int64),
	}
	copy(t.nodes, accounts)
	for i, acc := range t.nodes {
		if _, dup := t.index[acc.ID]; dup {
			return nil, fmt.Errorf("accounts: duplicate id %d", acc.ID)
		}
		t.index[acc.ID] = i
	}
	for _, acc := range t.nodes {
		if acc.ParentID == nil {
			continue
		}
		if _, ok := t.index[*acc.ParentID]; !ok {
			return nil, fmt.Errorf("accounts: account %d references unknown parent %d", acc.ID, *acc.ParentID)
		}
		t.children[*acc.ParentID] = append(t.children[*acc.ParentID], acc.ID)
	}
	if err := t.checkCycles(); err != nil {
		return nil, err
	}
	for _, ids := range t.children {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return t, nil
}

// checkCycles walks each node upward; an account must never be its own ancestor.
func (t *Tree) checkCycles() error {
	for _, acc := range t.nodes {
		seen := map[int64]bool{acc.ID: true}
		cur := acc
		for cur.ParentID != nil {
			parent := t.nodes[t.index[*cur.ParentID]]
			if seen[parent.ID] {
				return fmt.Errorf("accounts: cycle detected at account %d", acc.ID)
			}
			seen[parent.ID] = true
			cur = parent
		}
	}
	return nil
}

// Get returns the account for an id.
func (t *Tree) Get(id int64) (Account, bool) {
	i, ok := t.index[id]
	if !ok {
		return Account{}, false
	}
	return t.nodes[i], true
}

// DescendantIDs returns the id plus all descendant ids, in ascending order.
func (t *Tree) DescendantIDs(id int64) []int64 {
	if _, ok := t.index[id]; !ok {
		return nil
	}
	out := []int64{id}
	queue := append([]int64(nil), t.children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, t.children[next]...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllIDs returns every account id in the arena, in ascending order.
func (t *Tree) AllIDs() []int64 {
	out := make([]int64, 0, len(t.nodes))
	for _, acc := range t.nodes {
		out = append(out, acc.ID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
