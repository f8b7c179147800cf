// Package tree implements the pure operations over a post's comment forest.
// A Forest is an immutable value: every operation returns a new forest and
// leaves its input untouched, sharing untouched subtrees and copying only the
// sibling slices along the path to the mutation point. Lookups walk the forest
// with an explicit stack rather than recursion, so pathological thread depth
// cannot blow the goroutine stack.
package tree

import (
	"sort"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
)

// Forest is the ordered set of root-level comments with their nested replies.
type Forest []model.Comment

// frame is one step of the iterative forest walk: a sibling slice plus the
// index path from the roots down to that slice's parent.
type frame struct {
	siblings []model.Comment
	path     []int
}

// locate returns the index path to the node with the given id, searching the
// entire forest at every level. The second return is false when id is absent.
func locate(f Forest, id string) ([]int, bool) {
	stack := []frame{{siblings: f}}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range fr.siblings {
			if fr.siblings[i].ID == id {
				path := make([]int, 0, len(fr.path)+1)
				path = append(path, fr.path...)
				return append(path, i), true
			}
			if len(fr.siblings[i].Children) > 0 {
				childPath := make([]int, 0, len(fr.path)+1)
				childPath = append(childPath, fr.path...)
				childPath = append(childPath, i)
				stack = append(stack, frame{siblings: fr.siblings[i].Children, path: childPath})
			}
		}
	}

	return nil, false
}

// rebuild returns a copy of f where the node at path has been replaced by the
// result of mutate. Sibling slices along the path are copied; everything else
// is shared with the input forest. mutate receives a value copy and must not
// retain aliases into the original node's Children backing array when it
// grows or shrinks that slice.
func rebuild(f Forest, path []int, mutate func(model.Comment) model.Comment) Forest {
	copied := make([][]model.Comment, len(path))

	cur := []model.Comment(f)
	for d, idx := range path {
		cp := make([]model.Comment, len(cur))
		copy(cp, cur)
		copied[d] = cp
		cur = cp[idx].Children
	}

	last := len(path) - 1
	copied[last][path[last]] = mutate(copied[last][path[last]])

	for d := last; d > 0; d-- {
		copied[d-1][path[d-1]].Children = copied[d]
	}

	return Forest(copied[0])
}

// Insert adds node to the forest. Root-level nodes (nil ParentID) are
// prepended, matching a newest-first composition surface; replies are appended
// to their parent's children after a full-forest parent lookup. When the
// parent cannot be found the input forest is returned unchanged. Depth is
// normalized from the resolved parent so the depth invariant holds even if the
// caller's node carries a stale value.
func Insert(f Forest, node model.Comment) Forest {
	node.Children = nil

	if node.ParentID == nil {
		node.Depth = 0
		roots := make([]model.Comment, 0, len(f)+1)
		roots = append(roots, node)
		roots = append(roots, f...)
		return roots
	}

	path, ok := locate(f, *node.ParentID)
	if !ok {
		return f
	}

	return rebuild(f, path, func(parent model.Comment) model.Comment {
		node.Depth = parent.Depth + 1
		children := make([]model.Comment, 0, len(parent.Children)+1)
		children = append(children, parent.Children...)
		children = append(children, node)
		parent.Children = children
		return parent
	})
}

// Patch carries the fields Update may replace. Nil fields are left untouched.
type Patch struct {
	Content *string
	Edited  *bool
}

// Update locates id anywhere in the forest and applies patch to it.
// Returns the input forest unchanged when id is absent.
func Update(f Forest, id string, patch Patch) Forest {
	path, ok := locate(f, id)
	if !ok {
		return f
	}

	return rebuild(f, path, func(c model.Comment) model.Comment {
		if patch.Content != nil {
			c.Content = *patch.Content
		}
		if patch.Edited != nil {
			c.Edited = *patch.Edited
		}
		return c
	})
}

// Remove deletes the node with the given id together with its entire subtree.
// Siblings and unrelated subtrees are structurally unchanged. Returns the
// input forest unchanged when id is absent.
func Remove(f Forest, id string) Forest {
	path, ok := locate(f, id)
	if !ok {
		return f
	}

	i := path[len(path)-1]

	if len(path) == 1 {
		if len(f) == 1 {
			return nil
		}
		roots := make([]model.Comment, 0, len(f)-1)
		roots = append(roots, f[:i]...)
		roots = append(roots, f[i+1:]...)
		return roots
	}

	return rebuild(f, path[:len(path)-1], func(parent model.Comment) model.Comment {
		if len(parent.Children) == 1 {
			parent.Children = nil
			return parent
		}
		children := make([]model.Comment, 0, len(parent.Children)-1)
		children = append(children, parent.Children[:i]...)
		children = append(children, parent.Children[i+1:]...)
		parent.Children = children
		return parent
	})
}

// Roots returns a copy of the forest's top-level slice (depth-0 nodes).
func Roots(f Forest) []model.Comment {
	roots := make([]model.Comment, len(f))
	copy(roots, f)
	return roots
}

// SortRoots returns the given root-level siblings ordered by CreatedAt:
// descending for SortNewest, ascending for SortOldest. Only roots are ever
// sorted; replies keep arrival order regardless of the active key.
func SortRoots(roots []model.Comment, key model.SortKey) []model.Comment {
	sorted := make([]model.Comment, len(roots))
	copy(sorted, roots)

	sort.SliceStable(sorted, func(i, j int) bool {
		if key == model.SortOldest {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	return sorted
}

// Find returns the node with the given id from anywhere in the forest.
func Find(f Forest, id string) (model.Comment, bool) {
	path, ok := locate(f, id)
	if !ok {
		return model.Comment{}, false
	}

	nodes := []model.Comment(f)
	var node model.Comment
	for _, idx := range path {
		node = nodes[idx]
		nodes = node.Children
	}
	return node, true
}

// Count returns the total number of nodes in the forest, descendants included.
func Count(f Forest) int {
	n := 0
	Walk(f, func(model.Comment) bool {
		n++
		return true
	})
	return n
}

// Walk visits every node in pre-order (each root, then its subtree, in sibling
// order). The walk stops early when fn returns false.
func Walk(f Forest, fn func(model.Comment) bool) {
	// Push siblings in reverse so the stack pops them in display order.
	stack := make([]model.Comment, 0, len(f))
	for i := len(f) - 1; i >= 0; i-- {
		stack = append(stack, f[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(node) {
			return
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

// Build assembles a forest from the flat rows returned by the comments API.
// Sibling order follows input order; depth is derived from parent chains.
// Rows whose parent is missing from the batch are dropped, as are rows caught
// in a parent cycle (defensive: the server should never produce either).
func Build(flat []model.Comment) Forest {
	if len(flat) == 0 {
		return nil
	}

	parentOf := make(map[string]*string, len(flat))
	for _, c := range flat {
		parentOf[c.ID] = c.ParentID
	}

	// Resolve each row's depth by walking its parent chain. A chain longer
	// than the batch means an orphan or a cycle; both are dropped.
	depthOf := make(map[string]int, len(flat))
	maxDepth := 0
	for _, c := range flat {
		depth, ok := resolveDepth(c.ID, parentOf, depthOf, len(flat))
		if !ok {
			continue
		}
		depthOf[c.ID] = depth
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	// Attach deepest levels first so every child value is complete before it
	// is copied into its parent's Children slice.
	childrenOf := make(map[string][]model.Comment)
	for d := maxDepth; d >= 1; d-- {
		for _, c := range flat {
			if depth, ok := depthOf[c.ID]; !ok || depth != d {
				continue
			}
			c.Depth = d
			c.Children = childrenOf[c.ID]
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
		}
	}

	var roots Forest
	for _, c := range flat {
		if depth, ok := depthOf[c.ID]; !ok || depth != 0 {
			continue
		}
		c.Depth = 0
		c.Children = childrenOf[c.ID]
		roots = append(roots, c)
	}

	return roots
}

// resolveDepth walks id's parent chain, memoizing known depths. The limit
// bounds the walk so a malformed parent cycle terminates.
func resolveDepth(id string, parentOf map[string]*string, depthOf map[string]int, limit int) (int, bool) {
	hops := 0
	cur := id

	for {
		if d, ok := depthOf[cur]; ok {
			return d + hops, true
		}

		parent, known := parentOf[cur]
		if !known {
			return 0, false // Orphan: parent not in this batch.
		}
		if parent == nil {
			return hops, true
		}

		cur = *parent
		hops++
		if hops > limit {
			return 0, false // Cycle.
		}
	}
}
