package uthreads

import (
	"os"
	"time"
)

func ok() opResult  { return opResult{value: success} }
func bad() opResult { return opResult{value: failure} }

// Init sets up the scheduler and arms the preemption driver for the
// given quantum length, in microseconds. Must be called exactly once
// before any other operation. Grounded on uthreads.cpp's uthread_init.
func (s *Scheduler) Init(quantumUsecs int) int {
	if quantumUsecs <= 0 {
		s.recordError(reportLibraryError("Init", "Init error, quantum isn't positive!"))
		return failure
	}
	res := s.submit(func() (opResult, *context) {
		if s.initialized {
			return bad(), nil
		}
		main := newMainTCB()
		s.tcbs[MainThreadID] = main
		s.runningID = MainThreadID
		s.totalQuantums = 1
		s.quantum = time.Duration(quantumUsecs) * time.Microsecond
		if err := s.driver.Start(s.quantum, s.tick); err != nil {
			s.recordError(reportSystemErrorAndExit("Init", err.Error()))
		}
		s.initialized = true
		return ok(), nil
	})
	if res.value == failure {
		s.recordError(reportLibraryError("Init", "Init error, already initialized"))
	}
	return res.value
}

// Spawn allocates a new thread running entry and places it on the ready
// queue. Grounded on uthreads.cpp's uthread_spawn + uthread_create.
func (s *Scheduler) Spawn(entry func()) int {
	if entry == nil {
		s.recordError(reportLibraryError("Spawn", "Spawn error, max threads or invalid entry_point!"))
		return failure
	}
	notInitialized := false
	res := s.submit(func() (opResult, *context) {
		if !s.initialized {
			notInitialized = true
			return bad(), nil
		}
		id, allocated := s.ids.allocate()
		if !allocated {
			return bad(), nil
		}
		t := newSpawnedTCB(id, entry)
		s.tcbs[id] = t
		s.ready = append(s.ready, id)
		go s.runEntry(t)
		s.logger.Debug("spawn", "tid", id)
		return opResult{value: id}, nil
	})
	if res.value == failure {
		if notInitialized {
			s.recordError(reportLibraryError("Spawn", "Spawn error, library not initialized!"))
		} else {
			s.recordError(reportLibraryError("Spawn", "Spawn error, max threads or invalid entry_point!"))
		}
	}
	return res.value
}

// runEntry is the body of every spawned thread's dedicated goroutine. It
// parks immediately and only proceeds once the scheduler readies it for
// the first time; see doc.go's Preemption model for what "readies it"
// can and can't interrupt once entry is running. When entry returns,
// the thread is terminated unless it already was (by itself or another
// thread), in which case its id may already belong to a newer thread.
func (s *Scheduler) runEntry(t *tcb) {
	if !t.ctx.park(false) {
		return
	}
	t.entry()
	select {
	case <-t.ctx.kill:
		return
	default:
	}
	s.Terminate(t.id)
}

// Terminate destroys thread tid, releasing its id and stack. tid == 0
// releases all resources and exits the process with status 0, matching
// uthread_terminate's handling of the main thread.
func (s *Scheduler) Terminate(tid int) int {
	if tid == MainThreadID {
		s.cmds <- func() {
			s.tcbs = make(map[int]*tcb)
			s.ready = nil
			s.sleeping = make(map[int]int)
			s.driver.Stop()
			os.Exit(0)
		}
		select {} // unreachable: the command above always exits the process
	}
	res := s.submit(func() (opResult, *context) {
		t, exists := s.tcbs[tid]
		if !exists {
			return bad(), nil
		}
		outgoingIsRunning := tid == s.runningID
		s.removeFromReady(tid)
		delete(s.sleeping, tid)
		delete(s.tcbs, tid)
		s.ids.release(tid)
		t.release()
		t.ctx.terminate()
		s.logger.Debug("terminate", "tid", tid)
		if outgoingIsRunning {
			s.pickNext(yieldDiscarded)
		}
		return ok(), nil
	})
	if res.value == failure {
		s.recordError(reportLibraryError("Terminate", "terminate error, invalid thread id"))
	}
	return res.value
}

// Block moves tid to the BLOCKED state, removing it from the ready
// queue. tid == 0 is always a library error: the main thread cannot be
// blocked. Grounded on uthreads.cpp's uthread_block; see DESIGN.md for
// the insertion-into-blocked-exactly-once decision this codifies.
func (s *Scheduler) Block(tid int) int {
	if tid == MainThreadID {
		s.recordError(reportLibraryError("Block", "Block error, illegal tid!"))
		return failure
	}
	res := s.submit(func() (opResult, *context) {
		t, exists := s.tcbs[tid]
		if !exists {
			return bad(), nil
		}
		if t.state == Blocked {
			return ok(), nil
		}
		wasRunning := tid == s.runningID
		t.state = Blocked
		s.removeFromReady(tid)
		s.logger.Debug("block", "tid", tid)
		if wasRunning {
			s.pickNext(yieldToBlocked)
			return ok(), t.ctx
		}
		return ok(), nil
	})
	if res.value == failure {
		s.recordError(reportLibraryError("Block", "Block error, illegal tid!"))
	}
	return res.value
}

// Resume moves a BLOCKED thread back to READY. Never yields: resuming
// another thread never switches who is running. Grounded on
// uthread_resume.
func (s *Scheduler) Resume(tid int) int {
	res := s.submit(func() (opResult, *context) {
		t, exists := s.tcbs[tid]
		if !exists {
			return bad(), nil
		}
		if t.state != Blocked {
			return ok(), nil
		}
		t.state = Ready
		if _, sleeping := s.sleeping[tid]; !sleeping {
			s.ready = append(s.ready, tid)
		}
		s.logger.Debug("resume", "tid", tid)
		return ok(), nil
	})
	if res.value == failure {
		s.recordError(reportLibraryError("Resume", "Resume error, illegal tid!"))
	}
	return res.value
}

// Sleep takes the calling thread off the ready queue for numQuantums
// quanta. The main thread may never sleep. Grounded on uthread_sleep;
// operates on the running thread implicitly, exactly as the original
// reads running_thread->getId() rather than taking a tid argument — see
// doc.go's Concurrency section for why that convention carries over
// unchanged.
func (s *Scheduler) Sleep(numQuantums int) int {
	if numQuantums < 0 {
		s.recordError(reportLibraryError("Sleep", "sleep error, negative quantum count"))
		return failure
	}
	res := s.submit(func() (opResult, *context) {
		if s.runningID == MainThreadID {
			return bad(), nil
		}
		running := s.tcbs[s.runningID]
		s.sleeping[s.runningID] = numQuantums
		s.logger.Debug("sleep", "tid", running.id, "quantums", numQuantums)
		s.pickNext(yieldToSleeping)
		return ok(), running.ctx
	})
	if res.value == failure {
		s.recordError(reportLibraryError("Sleep", "sleep error, main thread is illegal"))
	}
	return res.value
}

// GetTid returns the currently running thread's id.
func (s *Scheduler) GetTid() int {
	res := s.submit(func() (opResult, *context) {
		return opResult{value: s.runningID}, nil
	})
	return res.value
}

// GetTotalQuantums returns the number of quanta that have started across
// every thread since Init.
func (s *Scheduler) GetTotalQuantums() int {
	res := s.submit(func() (opResult, *context) {
		return opResult{value: s.totalQuantums}, nil
	})
	return res.value
}

// GetQuantums returns how many quanta tid has run for, or failure if tid
// is not a live thread.
func (s *Scheduler) GetQuantums(tid int) int {
	res := s.submit(func() (opResult, *context) {
		t, exists := s.tcbs[tid]
		if !exists {
			return bad(), nil
		}
		return opResult{value: t.quantums}, nil
	})
	if res.value == failure {
		s.recordError(reportLibraryError("GetQuantums", "quantum error, invalid thread id"))
	}
	return res.value
}
