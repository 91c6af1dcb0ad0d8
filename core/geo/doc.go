// Package geo provides great-circle distance helpers used to derive the
// receiver distance feature. Coordinates are plain degrees; out-of-range
// values are not rejected and simply produce a best-effort distance.
package geo
