package vm

// gc runs one mark-and-sweep pass over the environment registry.
// Every environment reachable from a live thread (current, ready, blocked,
// joining, or a zombie not yet joined) is marked; everything else is
// dropped from the registry, which is the only strong owner.
func (vm *VM) gc() {
	for h := range vm.reg.marked {
		vm.reg.marked[h] = false
	}

	mark := func(h EnvHandle) {
		vm.markChain(h)
	}

	mark(vm.global)
	if vm.current != nil {
		vm.markThread(vm.current)
	}
	for _, tid := range vm.ready {
		if t, ok := vm.threads[tid]; ok {
			vm.markThread(t)
		}
	}
	for _, waiters := range vm.blocked {
		for _, tid := range waiters {
			if t, ok := vm.threads[tid]; ok {
				vm.markThread(t)
			}
		}
	}
	for _, waiters := range vm.joiners {
		for _, tid := range waiters {
			if t, ok := vm.threads[tid]; ok {
				vm.markThread(t)
			}
		}
	}
	for _, z := range vm.zombies {
		vm.markThread(z)
	}

	for h := range vm.reg.entries {
		if !vm.reg.marked[h] {
			delete(vm.reg.entries, h)
			delete(vm.reg.marked, h)
		}
	}
}

// markChain marks h and every ancestor reachable through its parent chain,
// stopping early at an already-marked environment.
func (vm *VM) markChain(h EnvHandle) {
	for {
		if vm.reg.marked[h] {
			return
		}
		vm.reg.marked[h] = true
		env, ok := vm.reg.entries[h]
		if !ok || !env.hasParent {
			return
		}
		h = env.parent
	}
}

func (vm *VM) markThread(t *Thread) {
	vm.markChain(t.Env)
	for _, frame := range t.Runtime {
		vm.markChain(frame.Env)
	}
	for _, v := range t.Operand {
		if v.Kind == ClosureKind && v.Closure.Source == UserClosure {
			vm.markChain(v.Closure.Env)
		}
	}
}
