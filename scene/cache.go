package scene

// A lazily recomputed value. Mutators invalidate it; readers check Valid
// before trusting Get.
type cache[T any] struct {
	value T
	valid bool
}

func (c *cache[T]) Set(value T) {
	c.value = value
	c.valid = true
}

func (c *cache[T]) Get() (T, bool) {
	return c.value, c.valid
}

func (c *cache[T]) Valid() bool {
	return c.valid
}

func (c *cache[T]) Invalidate() {
	var zero T
	c.value = zero
	c.valid = false
}
