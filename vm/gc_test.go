package vm

import "testing"

func TestGCSweepsUnreachableEnvironments(t *testing.T) {
	vm := New()
	reachable := vm.reg.alloc(vm.global, true)
	unreachable := vm.reg.alloc(vm.global, true)

	thread := vm.newThread(reachable)
	vm.current = thread
	vm.threads[thread.ID] = thread

	vm.gc()

	if _, ok := vm.reg.entries[reachable]; !ok {
		t.Fatalf("expected env reachable through the current thread to survive GC")
	}
	if _, ok := vm.reg.entries[unreachable]; ok {
		t.Fatalf("expected unreachable env to be swept")
	}
	if _, ok := vm.reg.entries[vm.global]; !ok {
		t.Fatalf("expected global env to always survive GC")
	}
}

func TestGCPreservesEnvironmentsCapturedByOperandStackClosures(t *testing.T) {
	vm := New()
	captured := vm.reg.alloc(vm.global, true)

	thread := vm.newThread(vm.global)
	thread.Operand.Push(ClosureValue(&Closure{Source: UserClosure, Env: captured}))
	vm.current = thread
	vm.threads[thread.ID] = thread

	vm.gc()

	if _, ok := vm.reg.entries[captured]; !ok {
		t.Fatalf("expected env captured by a closure on the operand stack to survive GC")
	}
}

func TestGCPreservesRuntimeStackFrameEnvironments(t *testing.T) {
	vm := New()
	blockEnv := vm.reg.alloc(vm.global, true)

	thread := vm.newThread(vm.global)
	thread.Runtime.Push(Frame{Env: blockEnv})
	vm.current = thread
	vm.threads[thread.ID] = thread

	vm.gc()

	if _, ok := vm.reg.entries[blockEnv]; !ok {
		t.Fatalf("expected env referenced by a runtime-stack frame to survive GC")
	}
}

func TestGCMarksZombieThreadsUntilJoined(t *testing.T) {
	vm := New()
	zombieEnv := vm.reg.alloc(vm.global, true)

	zombie := vm.newThread(zombieEnv)
	zombie.State = Done
	vm.zombies[zombie.ID] = zombie

	mainThread := vm.newThread(vm.global)
	vm.current = mainThread
	vm.threads[mainThread.ID] = mainThread

	vm.gc()

	if _, ok := vm.reg.entries[zombieEnv]; !ok {
		t.Fatalf("expected a zombie's environment to stay reachable until joined")
	}
}
