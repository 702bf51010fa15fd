package projects

// PersistStatus summarizes how much of an analysis run reached the store.
type PersistStatus string

const (
	PersistSaved   PersistStatus = "saved"
	PersistPartial PersistStatus = "partial"
	PersistFailed  PersistStatus = "failed"
)

// PersistResult reports the outcome of the project/analysis/info writes.
// Writes are attempted once and are not transactional across the three.
type PersistResult struct {
	Status        PersistStatus `json:"status"`
	ProjectSaved  bool          `json:"project_saved"`
	AnalysisSaved bool          `json:"analysis_saved"`
	InfoSaved     int           `json:"info_saved"`
	InfoTotal     int           `json:"info_total"`
	Errors        []string      `json:"errors,omitempty"`
}

// Finalize derives Status from the individual flags.
func (r *PersistResult) Finalize() {
	switch {
	case !r.ProjectSaved:
		r.Status = PersistFailed
	case r.AnalysisSaved && r.InfoSaved == r.InfoTotal:
		r.Status = PersistSaved
	default:
		r.Status = PersistPartial
	}
}

// Saved is the legacy saved_to_airtable flag: true only when everything landed.
func (r PersistResult) Saved() bool { return r.Status == PersistSaved }
