package weave

import (
	"fmt"
	"sync"
)

// State is the shared per-call context: section values, the section
// lock set, and the continued-rejection list. One State is created per
// top-level call and lives for its full dynamic extent, including
// re-invocations caused by around advice or an outer retry driver.
type State struct {
	mu       sync.Mutex
	sections map[Section]any
	held     map[Section]struct{}

	rejections []*AdviceError
}

// newState builds a State over the given section values. The key set
// doubles as the set of declared sections for this call.
func newState(sections map[Section]any) *State {
	if sections == nil {
		sections = make(map[Section]any)
	}
	return &State{
		sections: sections,
		held:     make(map[Section]struct{}),
	}
}

// Use grants fn temporary, mutually-exclusive, read-only access to the
// listed sections. Acquisition is all-or-nothing: if any section is
// unknown the call fails with ErrSectionNotDeclared, and if any is
// checked out by another advice it fails with ErrSectionInUse without
// taking the rest. The sections are released when fn settles, even on
// error or panic. The view must not be retained past fn's return.
func (s *State) Use(sections []Section, fn func(*View) error) error {
	if err := s.acquire(sections); err != nil {
		return err
	}
	defer s.release(sections)

	granted := make(map[Section]any, len(sections))
	s.mu.Lock()
	for _, sec := range sections {
		granted[sec] = s.sections[sec]
	}
	s.mu.Unlock()

	return fn(&View{granted: granted})
}

func (s *State) acquire(sections []Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sec := range sections {
		if _, ok := s.sections[sec]; !ok {
			return fmt.Errorf("%w: %q", ErrSectionNotDeclared, sec)
		}
	}
	for _, sec := range sections {
		if _, ok := s.held[sec]; ok {
			return fmt.Errorf("%w: %q", ErrSectionInUse, sec)
		}
	}
	for _, sec := range sections {
		s.held[sec] = struct{}{}
	}
	return nil
}

func (s *State) release(sections []Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sec := range sections {
		delete(s.held, sec)
	}
}

// addRejection records a continued advice failure. Rejections are
// never dropped within one call; the call boundary is the cap.
func (s *State) addRejection(e *AdviceError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections = append(s.rejections, e)
}

// Rejections returns a snapshot of the failures recorded under a
// continue policy, in the order they occurred.
func (s *State) Rejections() []*AdviceError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AdviceError, len(s.rejections))
	copy(out, s.rejections)
	return out
}

// View is the read-only window an advice receives over the sections it
// declared. Section values are returned as-is: a pointer-typed value
// stays mutable through the pointer, but the view itself admits no
// mutation of the section mapping.
type View struct {
	granted map[Section]any
}

// Get returns the value of a granted section. Reading a section the
// advice did not declare fails with ErrSectionNotDeclared.
func (v *View) Get(sec Section) (any, error) {
	val, ok := v.granted[sec]
	if !ok {
		return nil, fmt.Errorf("%w: %q not granted to this advice", ErrSectionNotDeclared, sec)
	}
	return val, nil
}

// Set always fails with ErrReadOnlyView. Views expose state; they do
// not accept it.
func (v *View) Set(Section, any) error {
	return ErrReadOnlyView
}

// Sections returns the granted section names in unspecified order.
func (v *View) Sections() []Section {
	out := make([]Section, 0, len(v.granted))
	for sec := range v.granted {
		out = append(out, sec)
	}
	return out
}
