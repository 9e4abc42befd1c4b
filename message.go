package vactor

// ActorKind is the stable name of an actor type, analogous to a service
// key's name in the teacher repo's receptionist. Virtual actors are looked
// up by (ActorKind, ActorId); local actors carry no kind beyond their
// handle.
type ActorKind string

// ActorID is the constraint satisfied by a virtual actor's identity.
// Concrete shapes used in this repository's tests and demos are int (the
// package tests and persistence/) and uint32 (cmd/vactorbench), matching
// spec.md §3's "hashable, clonable, serializable" requirement via Go's
// comparable constraint plus whatever encoding a Persistence backend needs.
type ActorID interface {
	comparable
}

// BaseMessage is embeddable in message types defined outside this package
// to satisfy the sealed Message interface's unexported marker method,
// mirroring the teacher's embedding idiom in interface.go.
type BaseMessage struct{}

func (BaseMessage) messageMarker() {}

// Message is a sealed interface for actor messages. A type embeds
// BaseMessage (or is declared inside this package) to satisfy it. Sealing
// prevents a handler from being type-switched against a message shape that
// was never meant to be routed through an actor mailbox.
type Message interface {
	// messageMarker is unexported, sealing the interface.
	messageMarker()

	// MessageType names the concrete message for logging and error
	// messages, matching the generated-code "debug rendering" spec.md §6
	// calls for.
	MessageType() string
}
