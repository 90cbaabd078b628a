// Package core defines the ports shared by the genjobs service and data layers.
package core

import (
	"github.com/target/genjobs/internal/domain/model"
)

// JobStatus is re-exported from the model package for HTTP handlers and adapters.
type JobStatus = model.JobStatus

// CreateJobRequest represents a request to create a new job (re-exported from model package).
// This is re-exported here for use in HTTP handlers to avoid direct coupling to the model package.
type CreateJobRequest = model.CreateJobRequest
