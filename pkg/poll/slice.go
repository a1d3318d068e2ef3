package poll

// Slice is a Producer over an owned slice. It is always ready and reports
// End once every item has been returned.
type Slice[T any] struct {
	items []T
	pos   int
}

var (
	_ Producer[int] = (*Slice[int])(nil)
	_ Sized         = (*Slice[int])(nil)
)

// FromSlice copies items into a new Slice producer.
func FromSlice[T any](items ...T) *Slice[T] {
	owned := make([]T, len(items))
	copy(owned, items)
	return &Slice[T]{items: owned}
}

func (s *Slice[T]) PollNext() (T, Status, error) {
	var zero T
	if s.pos >= len(s.items) {
		return zero, End, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, Ready, nil
}

// Remaining implements Sized.
func (s *Slice[T]) Remaining() int {
	return len(s.items) - s.pos
}
