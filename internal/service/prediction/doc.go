// Package prediction estimates what mailing a given quantity at one store
// will yield, and compares a user's quantity override with the optimizer's.
//
// Predictor and Comparator are pure and cheap enough to run on every
// debounced keystroke. Store history is read once per call by ProfileLoader,
// which is the only part of the package that does I/O.
//
// Diminishing returns follow a hyperbolic response curve around the store's
// reference quantity (its median historical deployment size):
//
//	rf(q) = ref / (ref + k·max(0, q − ref))
//
// Below the reference the response is linear; above it each extra recipient
// converts less. Saturation is 1 − rf and the projected percentile is the
// base percentile scaled by rf, so both are monotone in quantity.
package prediction
