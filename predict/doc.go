// Package predict forecasts task duration, success probability, and quality
// from the nearest historical outcomes in a history store.
//
// Each forecast is a point estimate (the neighbor mean), a min/max range, a
// confidence derived from mean neighbor similarity, and the sample size it
// was computed over. With no usable neighbors the estimate is zero-valued
// with a zero sample size, never an error.
package predict
