// Package httputil holds the JSON response and request helpers shared by
// the planner's HTTP handlers, so every endpoint uses one error envelope.
package httputil
