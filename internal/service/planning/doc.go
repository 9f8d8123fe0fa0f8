// Package planning runs the deployment planning pipeline: an analytics
// snapshot feeds the optimizer, whose ranking the scorer turns into plan
// items. Plans are returned to the caller and never persisted here.
package planning
