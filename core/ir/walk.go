package ir

import (
	"errors"
	"strconv"
)

// SkipChildren can be returned by a WalkFunc to skip the current
// node's children without stopping the walk.
var SkipChildren = errors.New("skip children")

// WalkFunc visits one node during a walk. The path locates the node in
// the tree ("" for the root, "/0/2" for the third child of the first
// child). Returning SkipChildren prunes the subtree; any other non-nil
// error stops the walk and is returned from Walk.
type WalkFunc func(n *Node, path string) error

// ChildPath returns the tree path of the index-th child of the node at
// the given path.
func ChildPath(path string, index int) string {
	return path + "/" + strconv.Itoa(index)
}

// Walk traverses the tree in pre-order, node before children, children
// in order. The visitor receives a live pointer and may mutate the node
// in place; use Map for pure rewrites.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	err := walk(root, "", fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walk(n *Node, path string, fn WalkFunc) error {
	if err := fn(n, path); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for i, c := range n.Children {
		if err := walk(c, ChildPath(path, i), fn); err != nil {
			return err
		}
	}
	return nil
}

// MapFunc rewrites one node during a Map. It may mutate and return its
// argument, return a replacement, or return nil to drop the node (and
// its subtree) from the rebuilt tree.
type MapFunc func(n *Node) *Node

// Map rebuilds the tree in pre-order: the function is applied to a copy
// of each node, then Map recurses over the children of whatever it
// returned. The input tree is never mutated. Returns nil if the root
// itself was dropped.
func Map(root *Node, fn MapFunc) *Node {
	if root == nil {
		return nil
	}
	return mapNode(root.Clone(), fn)
}

func mapNode(n *Node, fn MapFunc) *Node {
	m := fn(n)
	if m == nil {
		return nil
	}
	if len(m.Children) == 0 {
		return m
	}
	kept := make([]*Node, 0, len(m.Children))
	for _, c := range m.Children {
		if mc := mapNode(c, fn); mc != nil {
			kept = append(kept, mc)
		}
	}
	m.Children = kept
	return m
}

// Count returns the number of nodes in the subtree, including the root.
func Count(root *Node) int {
	if root == nil {
		return 0
	}
	n := 1
	for _, c := range root.Children {
		n += Count(c)
	}
	return n
}
