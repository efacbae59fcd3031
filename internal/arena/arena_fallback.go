//go:build !unix

package arena

// osMapAnon allocates from the heap when anonymous mappings are not
// available.
func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), nil, nil
}
