// stack.go provides a slice backed stack that holds values of any type.
// The bottom element is the first entry into the stack, while the top is
// the last entry to be added to the stack.

package util

// Stack is a LIFO stack of values of type T. The zero value is an empty stack.
type Stack[T any] struct {
	e []T
}

// Push adds a new element to the top of the stack.
func (s *Stack[T]) Push(e T) {
	s.e = append(s.e, e)
}

// Pop removes and returns the last inserted element on the stack.
// If the stack is empty the zero value and false are returned.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.e) == 0 {
		return zero, false
	}
	e := s.e[len(s.e)-1]
	s.e[len(s.e)-1] = zero
	s.e = s.e[:len(s.e)-1]
	return e, true
}

// Peek works just like Pop, but it does not remove the element from the stack.
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if len(s.e) == 0 {
		return zero, false
	}
	return s.e[len(s.e)-1], true
}
