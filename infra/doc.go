// Package infra holds the adapters behind the core interfaces: the SQLite
// and in-memory stores, artifact loading, MQTT publishing, metrics sinks,
// Sentry monitoring and the logging backends.
package infra
