// Package queue defines message payloads exchanged over the message broker
// together with the publisher and consumer that move them.
package queue

import "time"

// PasswordResetEmail is published when a principal requests a password
// reset. It carries the fully rendered email so the consumer needs neither
// the database nor the translation catalog.
type PasswordResetEmail struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Text        string    `json:"text"`
	HTML        string    `json:"html"`
	RequestedAt time.Time `json:"requested_at"`
}
