// Package dedup classifies media candidates against the catalog. Matching is
// a tiered chain evaluated in order: exact (perceptual hash plus timestamp
// and dimensions), perceptual (hash alone with tie-breakers), cryptographic
// (content hash plus size). It also owns public identifier derivation and
// the resequencing path for uniqueness collisions.
package dedup
