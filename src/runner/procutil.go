package runner

import (
	"errors"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// descendants returns every live descendant of pid, deepest first.
func descendants(pid int32) []*process.Process {
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}
	children, err := p.Children()
	if err != nil {
		return nil
	}
	var out []*process.Process
	for _, child := range children {
		out = append(out, descendants(child.Pid)...)
		out = append(out, child)
	}
	return out
}

// signalDescendants sends sig to every descendant of pid. It reports false
// when pid has no children.
func signalDescendants(pid int32, sig syscall.Signal) (bool, error) {
	procs := descendants(pid)
	var errs []error
	for _, p := range procs {
		if err := p.SendSignal(sig); err != nil {
			errs = append(errs, err)
		}
	}
	return len(procs) > 0, errors.Join(errs...)
}

// killDescendants kills the process tree below pid.
func killDescendants(pid int32) {
	for _, p := range descendants(pid) {
		_ = p.Kill()
	}
}
