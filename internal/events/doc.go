// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between components in the system. The booking service emits lifecycle events
// (created, status changed, deleted) without knowing which handlers will process
// them; in production the task package turns each one into a persisted task that
// publishes the event to Kafka.
//
// The primary components are:
// - TaskRequestEvent: Represents a request to create a background task
// - BookingEvent: The booking lifecycle payload carried by those requests
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
