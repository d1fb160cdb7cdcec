package queue

import (
	"container/heap"
	"fmt"
	"strings"
)

type Item struct {
	Cell     int     // grid index of this item
	Priority float32 // tentative cost from origin to this cell
	Index    int     // index of the item in the heap, -1 when not queued
}

// A Queue implements the heap.Interface and holds Items.
// Every Item pointer can be kept as a handle and passed to Update for a decrease-key.
type Queue []*Item

func NewQueueItem(cell int, priority float32) *Item {
	return &Item{Cell: cell, Priority: priority, Index: -1}
}

func NewQueue(initialItem *Item) *Queue {
	pq := make(Queue, 0)
	heap.Init(&pq)
	if initialItem != nil {
		heap.Push(&pq, initialItem)
	}
	return &pq
}

func (h Queue) Len() int {
	return len(h)
}

func (h Queue) Less(i, j int) bool {
	// MinHeap implementation
	return h[i].Priority < h[j].Priority
}

func (h Queue) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index, h[j].Index = i, j
}

func (h *Queue) Push(item interface{}) {
	n := len(*h)
	pqItem := item.(*Item)
	pqItem.Index = n
	*h = append(*h, pqItem)
}

func (h *Queue) Pop() interface{} {
	old := *h
	n := len(old)
	pqItem := old[n-1]
	old[n-1] = nil
	pqItem.Index = -1 // for safety
	*h = old[0 : n-1]
	return pqItem
}

// Enqueue adds the item and returns it, so the caller can keep it as a handle.
func (h *Queue) Enqueue(pqItem *Item) *Item {
	heap.Push(h, pqItem)
	return pqItem
}

// Dequeue removes and returns the item with the least priority.
func (h *Queue) Dequeue() *Item {
	return heap.Pop(h).(*Item)
}

func (h Queue) Peek() *Item {
	return h[0]
}

// Update changes the priority of a queued item and restores the heap order.
func (h *Queue) Update(pqItem *Item, newPriority float32) {
	if pqItem.Index < 0 {
		panic("update of an item which is not queued")
	}
	pqItem.Priority = newPriority
	heap.Fix(h, pqItem.Index)
}

func (h Queue) String() string {
	var sb strings.Builder
	for _, item := range h {
		sb.WriteString(fmt.Sprintf("%v: %v, %v\n", item.Index, item.Cell, item.Priority))
	}
	return sb.String()
}
