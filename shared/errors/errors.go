package errors

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Code       string // stable machine-readable kind, e.g. "not_found"
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Is matches any error of the same kind, so a freshly built error with a
// specific message still satisfies errors.Is against its sentinel.
func (e *ErrorWithStatusCode) Is(target error) bool {
	t, ok := target.(*ErrorWithStatusCode)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}
