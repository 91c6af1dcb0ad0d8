// Package scoring turns feature vectors into priority scores using a fitted
// artifact bundle: a categorical encoder for the food type, a numeric scaler
// and a regression model. A bundle is loaded once at startup and shared
// read-only by every caller; nothing in this package mutates it after
// construction.
package scoring
