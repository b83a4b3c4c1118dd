package vm

import "time"

// scheduler.go implements a cooperative, time-quantum-preempted scheduler
// over green threads, expressed as plain Go structs and slices rather
// than goroutines: OS-thread parallelism is out of scope, so the whole
// scheduler is one function driving a single `current` thread record.

func (vm *VM) spawn(addr int) error {
	cur := vm.current
	child := vm.newThread(cur.Env)
	child.PC = addr
	child.Operand.Push(IntValue(0))
	vm.threads[child.ID] = child
	vm.ready = append(vm.ready, child.ID)
	cur.Operand.Push(IntValue(int64(child.ID)))
	return nil
}

func (vm *VM) join() error {
	cur := vm.current
	tidVal, ok := cur.Operand.Pop()
	if !ok {
		return newRuntimeError(OperandUnderflow, "JOIN: operand stack is empty")
	}
	if tidVal.Kind != IntKind {
		return newRuntimeError(BadType, "JOIN expects an Int thread id, got %s", tidVal.Kind)
	}
	tid := ThreadID(tidVal.Int)

	if zombie, ok := vm.zombies[tid]; ok {
		cur.Operand.Push(zombie.Terminal)
		delete(vm.zombies, tid)
		return nil
	}

	cur.State = Joining
	cur.JoiningTID = tid
	vm.joiners[tid] = append(vm.joiners[tid], cur.ID)
	vm.switchToNextReady()
	return nil
}

func (vm *VM) wait() error {
	cur := vm.current
	v, ok := cur.Operand.Pop()
	if !ok {
		return newRuntimeError(OperandUnderflow, "WAIT: operand stack is empty")
	}
	if v.Kind != SemaphoreKind {
		return newRuntimeError(BadType, "WAIT expects a Semaphore, got %s", v.Kind)
	}
	sem := v.Sem
	if sem.Count > 0 {
		sem.Count--
		return nil
	}
	cur.State = Blocked
	cur.BlockedOn = sem
	vm.blocked[sem] = append(vm.blocked[sem], cur.ID)
	vm.switchToNextReady()
	return nil
}

func (vm *VM) post() error {
	cur := vm.current
	v, ok := cur.Operand.Pop()
	if !ok {
		return newRuntimeError(OperandUnderflow, "POST: operand stack is empty")
	}
	if v.Kind != SemaphoreKind {
		return newRuntimeError(BadType, "POST expects a Semaphore, got %s", v.Kind)
	}
	sem := v.Sem
	waiters := vm.blocked[sem]
	if len(waiters) > 0 {
		woken := waiters[0]
		vm.blocked[sem] = waiters[1:]
		if t, ok := vm.threads[woken]; ok {
			t.State = Ready
			t.BlockedOn = nil
			vm.ready = append(vm.ready, woken)
		}
		return nil
	}
	sem.Count++
	return nil
}

// doYield implements the YIELD opcode and the scheduler's time-quantum
// preemption: push current to the back of ready_queue, switch to
// the front. If nothing else is ready, the current thread simply keeps
// running — there is no one to yield to.
func (vm *VM) doYield() {
	vm.lastDispatch = time.Now()
	if len(vm.ready) == 0 {
		return
	}
	cur := vm.current
	cur.State = Ready
	vm.ready = append(vm.ready, cur.ID)
	vm.switchToNextReady()
}

// switchToNextReady pops the front of ready_queue and installs it as the
// current thread. If the queue is empty, vm.current becomes nil, which
// Run's dispatch loop treats as "halt".
func (vm *VM) switchToNextReady() {
	if len(vm.ready) == 0 {
		vm.current = nil
		return
	}
	nextID := vm.ready[0]
	vm.ready = vm.ready[1:]
	vm.current = vm.threads[nextID]
}

// threadDone implements DONE: the current thread becomes a zombie
// holding its terminal value, any threads already Joining on it are woken
// with that value pushed onto their own operand stacks, and the scheduler
// switches to the next Ready thread (or halts).
func (vm *VM) threadDone() error {
	cur := vm.current
	terminal := UnitValue()
	if v, ok := cur.Operand.Peek(); ok {
		terminal = v
	}
	cur.Terminal = terminal
	cur.State = Done
	vm.zombies[cur.ID] = cur
	delete(vm.threads, cur.ID)

	if waiters, ok := vm.joiners[cur.ID]; ok {
		for _, wtid := range waiters {
			wt, ok := vm.threads[wtid]
			if !ok {
				continue
			}
			wt.Operand.Push(terminal)
			wt.State = Ready
			vm.ready = append(vm.ready, wtid)
		}
		delete(vm.joiners, cur.ID)
	}

	vm.switchToNextReady()
	return nil
}
