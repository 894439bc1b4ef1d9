package sessions

// Repo is the durable session record: independently addressable string slots.
// Each call reads, writes or erases a single slot atomically.
type Repo interface {
	// Get returns the slot value or errors.ErrSlotNotFound.
	Get(key string) (string, error)

	// Set creates or replaces a slot.
	Set(key, value string) error

	// Delete erases a slot. Deleting a missing slot is not an error.
	Delete(key string) error
}
