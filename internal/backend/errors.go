package backend

// ConfigurationError means the backend address could not be resolved. It is fatal
// for the request that hit it.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// TransportError wraps a failure to reach the backend or to read its response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
