// Package notifications delivers push notifications for pipeline lifecycle
// events over ntfy. With no topic configured every notification is a noop.
package notifications
