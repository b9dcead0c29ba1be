// Package domain contains the core business entities of the bookings
// platform (users, services, bookings, reviews, revoked tokens) and the
// rules that belong to them: field validation, the booking status state
// machine, and half-open interval overlap arithmetic. It is independent
// of any specific infrastructure or delivery mechanism.
package domain
