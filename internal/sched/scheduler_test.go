package sched

import "testing"

func TestScheduleRunsInOrder(t *testing.T) {
	s := NewScheduler()
	var got []int
	s.Schedule(300, func() { got = append(got, 3) })
	s.Schedule(100, func() { got = append(got, 1) })
	s.Schedule(200, func() { got = append(got, 2) })

	s.Advance(300)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("execution order = %v, want [1 2 3]", got)
	}
}

func TestAdvanceOnlyRunsDueTasks(t *testing.T) {
	s := NewScheduler()
	ran := 0
	s.Schedule(100, func() { ran++ })
	s.Schedule(500, func() { ran++ })

	s.Advance(250)
	if ran != 1 {
		t.Fatalf("ran = %d after partial advance, want 1", ran)
	}
	s.Advance(500)
	if ran != 2 {
		t.Fatalf("ran = %d after full advance, want 2", ran)
	}
}

func TestCancelPreventsExecution(t *testing.T) {
	s := NewScheduler()
	ran := false
	h := s.Schedule(100, func() { ran = true })
	if !s.Cancel(h) {
		t.Fatal("Cancel returned false for pending task")
	}
	if s.Cancel(h) {
		t.Fatal("second Cancel should be a no-op")
	}
	s.Advance(1000)
	if ran {
		t.Fatal("canceled task still ran")
	}
}

func TestTaskRunsAtMostOnce(t *testing.T) {
	s := NewScheduler()
	ran := 0
	s.Schedule(100, func() { ran++ })
	s.Advance(100)
	s.Advance(200)
	s.Advance(300)
	if ran != 1 {
		t.Fatalf("task ran %d times, want 1", ran)
	}
}

func TestRescheduleFromCallback(t *testing.T) {
	s := NewScheduler()
	ran := 0
	var pump func()
	pump = func() {
		ran++
		if ran < 3 {
			s.Schedule(100, pump)
		}
	}
	s.Schedule(100, pump)

	// 每次 Advance 一格：連鎖任務要跨 Advance 展開
	s.Advance(100)
	s.Advance(200)
	s.Advance(300)
	if ran != 3 {
		t.Fatalf("chained task ran %d times, want 3", ran)
	}
}

func TestZeroDelayRunsOnNextAdvance(t *testing.T) {
	s := NewScheduler()
	s.Advance(500)
	ran := false
	s.Schedule(0, func() { ran = true })
	if ran {
		t.Fatal("zero-delay task must not run synchronously")
	}
	s.Advance(500)
	if !ran {
		t.Fatal("zero-delay task did not run on next advance")
	}
}

func TestEqualTimesRunFIFO(t *testing.T) {
	s := NewScheduler()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		s.Schedule(100, func() { got = append(got, i) })
	}
	s.Advance(100)
	for i, v := range got {
		if v != i {
			t.Fatalf("FIFO violated: got %v", got)
		}
	}
}
