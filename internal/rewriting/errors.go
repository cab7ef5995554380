package rewriting

// ParseError is a provider response that could not be turned into the expected batch.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NoProviderMessage is reported when the chain has no configured backends.
const NoProviderMessage = "No AI provider available"
