package n8n

// RequestObservation captures one n8n API round trip.
type RequestObservation struct {
	Operation  string
	Method     string
	StatusCode int
	DurationMS int64
	Success    bool
}

// RequestObserver receives one observation per n8n API request.
type RequestObserver interface {
	ObserveRequest(observation RequestObservation)
}

type noopRequestObserver struct{}

func (noopRequestObserver) ObserveRequest(RequestObservation) {}
