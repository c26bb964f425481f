// Tab and session errors shared by every layer of Tabcast.

package errors

// Sentinels carry no Details, so errors.Is matches them by Status and Message.
var (
	// ErrTabNotFound is returned for an unknown or already removed tab id.
	ErrTabNotFound = NotFound("Tab not found")
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = NotFound("Session not found")
	// ErrAlreadyServed rejects a second long-poll while one is attached to the tab.
	ErrAlreadyServed = Conflict("Tab is already being polled")
	// ErrTabClosed is returned by operations on a tab that has been closed.
	ErrTabClosed = Gone("Tab is closed")
	// ErrNoApp is returned when a client message arrives for a tab without an application.
	ErrNoApp = Conflict("No application is attached to the tab")
	// ErrInvalidEvent rejects an event that isn't valid JSON.
	ErrInvalidEvent = BadRequest("Event must be a valid JSON value")
	// ErrTransport ends a writer whose connection failed during delivery.
	ErrTransport = InternalServerError("Delivery to the poll connection failed")
)
