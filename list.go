// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

// listNode is an intrusive node for a circular doubly-linked list. It backs
// both a Pool's Cluster list and its bucketed free-lists of run first-slots;
// a node used as a list head is its own sentinel and is never unlinked.
//
// Every linked node's prev/next fields are always non-nil (pointing at a
// real node or at a head sentinel). That invariant is what lets a last-slot
// overlay's null sentinel word tell itself apart from a first-slot overlay
// occupying the same relative layout position: see isFirstSlotShape in
// slot.go.
type listNode struct {
	prev, next *listNode
}

// initHead turns n into an empty list head: a sentinel pointing at itself.
func (n *listNode) initHead() {
	n.prev, n.next = n, n
}

// isEmpty reports whether head, used as a list head, currently links no
// members.
func (head *listNode) isEmpty() bool {
	return head.next == head
}

// insertHead links n as the first member of head's list.
func (head *listNode) insertHead(n *listNode) {
	n.prev, n.next = head, head.next
	head.next.prev = n
	head.next = n
}

// insertTail links n as the last member of head's list.
func (head *listNode) insertTail(n *listNode) {
	n.prev, n.next = head.prev, head
	head.prev.next = n
	head.prev = n
}

// unlink removes n from whatever list it is currently linked into. No list
// head is required: n's own prev/next pointers are sufficient.
func (n *listNode) unlink() {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

// tail returns the node immediately before head, or nil if head is empty.
func (head *listNode) tail() *listNode {
	if head.isEmpty() {
		return nil
	}
	return head.prev
}

// popTail unlinks and returns the node immediately before head, or nil if
// head is empty. Repeatedly calling popTail until it returns nil drains the
// list one node at a time without needing a separate foreach cursor.
func (head *listNode) popTail() *listNode {
	n := head.tail()
	if n == nil {
		return nil
	}
	n.unlink()
	return n
}

// foreach visits every node linked into head, front to back, stopping early
// if visit returns false. head itself is never visited.
func (head *listNode) foreach(visit func(n *listNode) bool) {
	for n := head.next; n != head; n = n.next {
		if !visit(n) {
			return
		}
	}
}

// search returns the first node linked into head for which match reports
// true, or nil if none does.
func (head *listNode) search(match func(n *listNode) bool) *listNode {
	var found *listNode
	head.foreach(func(n *listNode) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
