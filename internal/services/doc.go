// Package services holds cross-cutting concerns shared by photoflow's
// components: the sentinel error taxonomy used to classify failures, and
// context annotation helpers that thread session, item, and worker identity
// through the pipeline.
package services
