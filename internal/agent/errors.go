package agent

import "errors"

// Sentinel errors for graph stages. Only errors checked with errors.Is()
// are defined here; each has a fixed degradation policy in the executor.
var (
	// ErrClassification indicates the classifier exhausted retries or
	// returned an unparseable label. Policy: treat as off_topic.
	ErrClassification = errors.New("classification failed")

	// ErrRetrieval indicates the vector-search collaborator stayed
	// unavailable after retries. Policy: force not_found.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the generation call exhausted retries.
	// Policy: fixed fallback apology; never propagates outward.
	ErrGeneration = errors.New("generation failed")

	// ErrThreadState indicates a thread's history is in an invalid state.
	// Policy: reset that thread's history rather than failing the request.
	ErrThreadState = errors.New("invalid thread state")
)
