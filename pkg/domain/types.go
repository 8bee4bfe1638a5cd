package domain

// DefaultUsername is used when a post omits the username field.
const DefaultUsername = "anonymous"

// PendingMessage is a decoded post that has not been stored yet.
type PendingMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Message is a stored board entry. Timestamp is assigned by the store.
type Message struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// TimeRange filters messages by exclusive timestamp bounds.
// A nil bound is not applied.
type TimeRange struct {
	Before *int64 `json:"before,omitempty"`
	After  *int64 `json:"after,omitempty"`
}

// Contains reports whether ts satisfies every bound that is set.
func (r TimeRange) Contains(ts int64) bool {
	if r.Before != nil && ts >= *r.Before {
		return false
	}
	if r.After != nil && ts <= *r.After {
		return false
	}
	return true
}
