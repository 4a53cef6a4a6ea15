/*
Package store provides the observable container every piece of application state
is built on.

# Model

A Store holds one value. Readers call Get; writers call Set or Update; views call
Subscribe and receive the current value immediately and every later value until they
unsubscribe.

# Ordering

Mutations are serialized per store and notification happens synchronously before the
mutating call returns. Subscribers therefore observe values in exactly the order the
mutations were made, even when collaborator goroutines and timer callbacks call in
concurrently.

# Example Usage

	s := store.New(0)
	unsubscribe := s.Subscribe(func(v int) {
		fmt.Println("value:", v)
	})
	defer unsubscribe()

	s.Set(1)
	s.Update(func(v int) (int, bool) { return v + 1, true })
*/
package store
