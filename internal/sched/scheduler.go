// Package sched 提供單執行緒 tick 迴圈使用的一次性延遲任務排程器。
// 所有操作（Schedule / Cancel / Advance）都只能在遊戲迴圈 goroutine 呼叫。
package sched

import "container/heap"

// Handle identifies a scheduled task. Zero is never a valid handle.
type Handle uint64

type task struct {
	execTime int64 // virtual ms
	id       Handle
	seq      uint64 // tie-break: FIFO among equal execTime
	fn       func()
	index    int
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].execTime != h[j].execTime {
		return h[i].execTime < h[j].execTime
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler 依虛擬時間排序的待辦佇列，由遊戲迴圈每 tick 推進。
type Scheduler struct {
	heap    taskHeap
	pending map[Handle]*task
	now     int64
	nextID  Handle
	nextSeq uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[Handle]*task)}
}

// Now returns the scheduler's current virtual time in milliseconds.
func (s *Scheduler) Now() int64 { return s.now }

// Schedule 在 delay 毫秒後執行 fn。delay <= 0 時於下一次 Advance 立即觸發。
func (s *Scheduler) Schedule(delayMs int64, fn func()) Handle {
	if delayMs < 0 {
		delayMs = 0
	}
	s.nextID++
	s.nextSeq++
	t := &task{
		execTime: s.now + delayMs,
		id:       s.nextID,
		seq:      s.nextSeq,
		fn:       fn,
	}
	s.pending[t.id] = t
	heap.Push(&s.heap, t)
	return t.id
}

// Cancel 撤銷尚未執行的任務。已執行或未知的 handle 為 no-op。
func (s *Scheduler) Cancel(h Handle) bool {
	t, ok := s.pending[h]
	if !ok {
		return false
	}
	delete(s.pending, h)
	heap.Remove(&s.heap, t.index)
	return true
}

// Advance 將虛擬時間推進到 now 並執行所有到期任務（至多一次）。
// 到期任務重新排程自己是合法的；新任務若也到期會在同一次 Advance 內執行。
func (s *Scheduler) Advance(now int64) {
	if now > s.now {
		s.now = now
	}
	for len(s.heap) > 0 && s.heap[0].execTime <= s.now {
		t := heap.Pop(&s.heap).(*task)
		delete(s.pending, t.id)
		t.fn()
	}
}

// PendingCount 回傳尚未執行的任務數（測試用）。
func (s *Scheduler) PendingCount() int { return len(s.pending) }
