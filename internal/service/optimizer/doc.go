// Package optimizer ranks candidate stores for a direct-mail campaign.
//
// Recommendations come from a chain of strategies. The language-model
// strategy is tried first; the statistical strategy always terminates the
// chain, so a caller receives a usable ranking even when the model is slow,
// unreachable or answers with something unusable. Degradation is reported
// through Result.Warnings, never through an error.
package optimizer
