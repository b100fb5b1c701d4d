// Package delivery sends orders to the human-monitored chat destination and
// classifies the failures that come back.
package delivery

type FailureKind string

const (
	FailureTransient                FailureKind = "transient"
	FailureDestinationNotConfigured FailureKind = "destination_not_configured"
)

func (k FailureKind) String() string {
	return string(k)
}

// Failure keeps the provider reply verbatim. HTTPStatus is 0 for network errors
// and timeouts.
type Failure struct {
	HTTPStatus      int         `json:"httpStatus"`
	ProviderMessage string      `json:"providerMessage"`
	Kind            FailureKind `json:"kind"`
}

// Result is either delivered with a provider reference or failed.
type Result struct {
	Delivered bool     `json:"delivered"`
	Reference string   `json:"reference,omitempty"`
	Failure   *Failure `json:"failure,omitempty"`
}

func Delivered(reference string) Result {
	return Result{Delivered: true, Reference: reference}
}

// Failed builds a failed result and classifies it.
func Failed(httpStatus int, providerMessage string) Result {
	f := &Failure{HTTPStatus: httpStatus, ProviderMessage: providerMessage}
	f.Kind = Classify(*f)
	return Result{Failure: f}
}

func (r Result) OK() bool {
	return r.Delivered
}

// Kind returns the failure classification, or "" when delivered.
func (r Result) Kind() FailureKind {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Kind
}
