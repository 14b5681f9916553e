package discovery

// FetchError reports a catalog failure. Message is safe to return to the
// caller; Err keeps the upstream detail for logs.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
