package domain

// Field is one input's local edit buffer. Draft is what the user is typing;
// Committed is the value last handed to a submission.
type Field[T comparable] struct {
	Draft     T
	Committed T
}

func (f *Field[T]) Edit(v T) {
	f.Draft = v
}

// Commit promotes the draft and returns it.
func (f *Field[T]) Commit() T {
	f.Committed = f.Draft
	return f.Committed
}

func (f *Field[T]) Reset() {
	var zero T
	f.Draft = zero
	f.Committed = zero
}

func (f Field[T]) Dirty() bool {
	return f.Draft != f.Committed
}
