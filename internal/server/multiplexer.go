package server

import (
	"golang.org/x/sys/unix"
)

// Multiplexer abstracts readiness notification over a set of connection
// handles. The relay depends only on this interface, so the underlying
// primitive can be swapped out (or faked in tests).
type Multiplexer interface {
	// Add inserts a handle into the watched set.
	Add(fd int)
	// Remove deletes a handle from the watched set.
	Remove(fd int)
	// Ready blocks until at least one watched handle is readable and
	// returns the ready handles in ascending order. Signal interruptions
	// are retried internally without side effects.
	Ready() ([]int, error)
}

// selectMux multiplexes readiness with select(2). The watched set is kept in
// an fd_set mirror plus a map for rescans; the highest watched descriptor is
// maintained incrementally and recomputed by scanning all live handles only
// when the previous maximum is removed. Client counts are expected to be
// small, so the O(n) rescan is the cheapest structure that works.
type selectMux struct {
	master  unix.FdSet
	watched map[int]struct{}
	maxFD   int
}

func newSelectMux() *selectMux {
	m := &selectMux{watched: make(map[int]struct{})}
	m.master.Zero()
	return m
}

func (m *selectMux) Add(fd int) {
	m.master.Set(fd)
	m.watched[fd] = struct{}{}
	if fd > m.maxFD {
		m.maxFD = fd
	}
}

func (m *selectMux) Remove(fd int) {
	m.master.Clear(fd)
	delete(m.watched, fd)
	if fd == m.maxFD {
		m.maxFD = 0
		for w := range m.watched {
			if w > m.maxFD {
				m.maxFD = w
			}
		}
	}
}

func (m *selectMux) Ready() ([]int, error) {
	for {
		// select mutates the set, so wait on a copy of the master set.
		read := m.master
		n, err := unix.Select(m.maxFD+1, &read, nil, nil, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}

		ready := make([]int, 0, n)
		for fd := 0; fd <= m.maxFD; fd++ {
			if read.IsSet(fd) {
				ready = append(ready, fd)
			}
		}
		return ready, nil
	}
}
