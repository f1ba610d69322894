package ports

// EventEmitter broadcasts engine events to connected clients.
type EventEmitter interface {
	Emit(event string, payload any)
}
