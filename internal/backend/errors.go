package backend

import "fmt"

// NetworkError se produce cuando el backend no es alcanzable o la llamada expira.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError representa una respuesta no 2xx.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend http error: status=%d", e.Status)
	}
	return fmt.Sprintf("backend http error: status=%d: %s", e.Status, e.Message)
}
