package frameworks

// Detection is a single ranked framework finding.
type Detection struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}
