package mem

import "fmt"

// DefaultPageSize provides a default for Stack.PageSize.
const DefaultPageSize = 4096

// Stack implements a dense, paged, integer stack with random access to any
// live slot. Pages are allocated as the stack grows, and retained after it
// shrinks, so that deep stacks never pay for whole-slice copies.
type Stack struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint

	// Limit specifies a depth past which any push should result in an error.
	Limit uint

	pages [][]int64
	depth uint
}

// LimitError indicates that a stack operation exceeded a limit.
type LimitError struct {
	Addr uint
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("stack limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// RangeError indicates an access outside of the live stack.
type RangeError struct {
	Addr  int64
	Depth uint
	Op    string
}

func (re RangeError) Error() string {
	return fmt.Sprintf("%v @%v out of range for depth %v", re.Op, re.Addr, re.Depth)
}

// Len returns the current depth.
func (s *Stack) Len() uint { return s.depth }

// Push appends values to the top of the stack.
// Returns an error if Limit would be exceeded; no partial push is done.
func (s *Stack) Push(values ...int64) error {
	end := s.depth + uint(len(values))
	if s.Limit != 0 && end > s.Limit {
		return LimitError{end, "push"}
	}
	for _, val := range values {
		page, i := s.slot(s.depth, true)
		page[i] = val
		s.depth++
	}
	return nil
}

// Pop removes and returns the top value.
func (s *Stack) Pop() (int64, error) {
	if s.depth == 0 {
		return 0, RangeError{-1, 0, "pop"}
	}
	s.depth--
	page, i := s.slot(s.depth, false)
	return page[i], nil
}

// Load returns the value at addr, which must be within the live stack.
func (s *Stack) Load(addr int64) (int64, error) {
	if addr < 0 || uint(addr) >= s.depth {
		return 0, RangeError{addr, s.depth, "load"}
	}
	page, i := s.slot(uint(addr), false)
	return page[i], nil
}

// Stor overwrites the value at addr, which must be within the live stack.
func (s *Stack) Stor(addr int64, val int64) error {
	if addr < 0 || uint(addr) >= s.depth {
		return RangeError{addr, s.depth, "stor"}
	}
	page, i := s.slot(uint(addr), false)
	page[i] = val
	return nil
}

// Values copies out the live stack, bottom first.
func (s *Stack) Values() []int64 {
	values := make([]int64, 0, s.depth)
	for addr := uint(0); addr < s.depth; {
		page, i := s.slot(addr, false)
		n := uint(len(page)) - i
		if rem := s.depth - addr; n > rem {
			n = rem
		}
		values = append(values, page[i:i+n]...)
		addr += n
	}
	return values
}

func (s *Stack) slot(addr uint, alloc bool) ([]int64, uint) {
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	pageID := addr / s.PageSize
	if alloc {
		for uint(len(s.pages)) <= pageID {
			s.pages = append(s.pages, make([]int64, s.PageSize))
		}
	}
	return s.pages[pageID], addr % s.PageSize
}
