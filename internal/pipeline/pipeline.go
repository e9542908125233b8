// Package pipeline detects whether the capsule is running inside a batch
// pipeline and exposes the identifiers the platform injects into the
// environment. A standalone run has neither variable set.
package pipeline

import (
	"os"
	"strings"
)

// Environment variable names injected by the execution platform.
const (
	BatchJobIDEnv    = "AWS_BATCH_JOB_ID"
	ComputationIDEnv = "CO_COMPUTATION_ID"
)

// JobID returns the batch job identifier, or "" outside a pipeline.
func JobID() string {
	return os.Getenv(BatchJobIDEnv)
}

// ComputationID returns the platform computation identifier, or "".
func ComputationID() string {
	return os.Getenv(ComputationIDEnv)
}

// IsPipeline reports whether this process was launched by a pipeline fan-out.
func IsPipeline() bool {
	return JobID() != ""
}

// JobPrefix returns the first segment of the batch job ID, used to suffix
// artifact filenames so parallel instances never collide. Empty outside a
// pipeline.
func JobPrefix() string {
	id := JobID()
	if id == "" {
		return ""
	}
	return strings.SplitN(id, "-", 2)[0]
}
