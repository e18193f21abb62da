package utils

// HeapPtr returns a pointer to a copy of v, for optional fields built from literals
func HeapPtr[T any](v T) *T {
	return &v
}
