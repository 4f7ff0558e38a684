package verify

import "fmt"

// The pipeline's collaborators surface typed errors from this taxonomy; the
// orchestrator is the single place where they are mapped to wire responses.

// ObjectNotFoundError means a referenced image is missing from object storage.
type ObjectNotFoundError struct {
	Message string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.Message)
}

// NoFaceError means a usable face was not detected. Image names the side that
// failed detection, "source" or "target"; it is empty when the provider
// rejected the comparison itself.
type NoFaceError struct {
	Image string
}

func (e *NoFaceError) Error() string {
	if e.Image == "" {
		return "no face detected"
	}
	return fmt.Sprintf("no face detected in %s image", e.Image)
}

// AccessDeniedError means the comparison capability refused access to one of
// the images.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Message)
}

// ProviderError is a comparison-provider fault that is neither a missing
// object, a missing face, nor a permission problem.
type ProviderError struct {
	Code      string
	Message   string
	Transient bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// PersistenceError wraps a failed attendance write.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// ProtocolError means the invocation input violated the capture-path grammar.
type ProtocolError struct {
	Path   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed capture path %q: %s", e.Path, e.Reason)
}
