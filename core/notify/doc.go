// Package notify tells donors and receivers about allocation changes. The
// Relay turns bus events into notices pushed through a Publisher, and the
// message helpers build the short texts served to polling clients.
package notify
