// Package state keeps per-user conversation state. It stores an opaque
// state name plus JSON data under (user, namespace) and knows nothing
// about the flows that use it.
package state
