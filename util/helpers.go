package util

// MapWithoutError applies a function to each element of a slice, returning a
// new slice of the same length.
func MapWithoutError[T, U any](xs []T, f func(T) U) []U {
	result := make([]U, len(xs))
	for i, x := range xs {
		result[i] = f(x)
	}
	return result
}

// Contains checks whether an item exists in a slice
func Contains[T comparable](s []T, item T) bool {
	for _, v := range s {
		if v == item {
			return true
		}
	}
	return false
}

// Dedupe removes duplicate elements from a slice, preserving the order of the
// remaining elements.
func Dedupe[T comparable](src []T) []T {
	seen := make(map[T]struct{}, len(src))
	result := make([]T, 0, len(src))
	for _, x := range src {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		result = append(result, x)
	}
	return result
}

// ToPointer returns a pointer to the given value. Useful for a literal that
// would otherwise need to be assigned to a variable before becoming
// addressable.
func ToPointer[T any](v T) *T {
	return &v
}
