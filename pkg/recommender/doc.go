// Package recommender evaluates rules against a measured system profile
// and produces prioritized configuration recommendations, then materializes
// accepted recommendations into items and converges them as a batch.
package recommender
