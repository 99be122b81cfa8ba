// Package introspect defines the descriptor types a framework adapter fills
// in to describe its endpoints: which paths and methods exist, what each
// handler accepts and returns, and how each serializer field is shaped.
//
// The generation engine consumes these descriptors through the small
// HandlerLike and SerializerLike capability interfaces, so any routing layer
// can be bound by implementing an adapter; the concrete Handler and
// Serializer types are ready-made implementations for adapters that build
// descriptors by hand.
package introspect
