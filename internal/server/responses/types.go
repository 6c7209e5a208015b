// Package responses defines the JSON payloads written by snapfront handlers.
package responses

import "time"

// HealthResponse is served by the status check endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// BuildStatusResponse carries the aggregated status of a snap build.
type BuildStatusResponse struct {
	Status string `json:"status"`
}

// NewsletterResponse reports the newsletter subscription of the session account.
type NewsletterResponse struct {
	Email      string `json:"email"`
	Subscribed bool   `json:"subscribed"`
}

// ErrorResponse is the bare error payload used by the publisher JSON views.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BuildLinkResponse carries the build service page of a build.
type BuildLinkResponse struct {
	Link string `json:"link"`
}
