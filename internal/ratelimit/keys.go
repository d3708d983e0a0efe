package ratelimit

// DefaultKeyPrefix namespaces the per-client records in the shared store.
const DefaultKeyPrefix = "rate_limit_"

// Keys derives the counter and window record keys for a client.
type Keys struct {
	Prefix string
}

// Counter returns the key of the client's CounterRecord.
func (k Keys) Counter(clientKey string) string {
	return k.Prefix + "count_" + clientKey
}

// Window returns the key of the client's WindowRecord.
func (k Keys) Window(clientKey string) string {
	return k.Prefix + "reset_" + clientKey
}
