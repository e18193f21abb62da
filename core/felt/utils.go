package felt

func IsZero[F FeltLike](v F) bool {
	f := Felt(v)
	return f.IsZero()
}

func Equal[F FeltLike](a, b F) bool {
	fa := Felt(a)
	fb := Felt(b)
	return fa.Equal(&fb)
}

// Cmp compares the integer values of a and b.
func Cmp[F FeltLike](a, b F) int {
	fa := Felt(a)
	fb := Felt(b)
	return fa.Cmp(&fb)
}

// Less reports whether the integer value of a is lower than the one of b.
func Less[F FeltLike](a, b F) bool {
	return Cmp(a, b) < 0
}
