package limits

// Size caps for data fetched from the course-registry origin

const (
	// Registry is the maximum size accepted for a fetched course list (1MB);
	// real registries are tens of rows
	Registry = 1 << 20

	// ErrorBody is the maximum size read from an HTTP error response body (1KB)
	// when reporting a failed registry fetch
	ErrorBody = 1024
)
