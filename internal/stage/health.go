package stage

// Health reports whether a pipeline stage can currently do useful work,
// e.g. whether its external service is reachable or its adapters are
// configured.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy builds a ready Health report for the named stage.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy builds a not-ready Health report carrying the blocking detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
