package gateway

// Control protocol DTOs. The message body mirrors the service messages the
// worker understands; everything else is reporting.

type messageDTO struct {
	Type string   `json:"type"`
	URLs []string `json:"urls,omitempty"`
}

type syncDTO struct {
	Tag string `json:"tag"`
}

type queueDTO struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	Tag     string            `json:"tag"`
}

type syncResultDTO struct {
	Replayed int `json:"replayed"`
	Requeued int `json:"requeued"`
}

type statusDTO struct {
	State              string `json:"state"`
	Version            string `json:"version"`
	PendingSubmissions int    `json:"pendingSubmissions"`
}

type errorDTO struct {
	Error string `json:"error"`
}
