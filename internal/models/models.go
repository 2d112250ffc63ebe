package models

// CardRecord identifies one downloadable card from a catalog search
type CardRecord struct {
	Name     string `json:"name" parquet:"name"`
	Rarity   string `json:"rarity" parquet:"rarity"`
	SetCode  string `json:"set_code" parquet:"set_code"`
	ImageURL string `json:"image_url" parquet:"image_url"`
}

// Outcome is the result class of a single remote fetch
type Outcome int

const (
	// OutcomePending is the zero value, for work that never ran
	OutcomePending Outcome = iota
	// OutcomeSuccess means the remote responded 200 and the payload was consumed
	OutcomeSuccess
	// OutcomeSkipped means the remote responded with a non-success status
	OutcomeSkipped
	// OutcomeFailed means the request or the payload could not be completed
	OutcomeFailed
	// OutcomeExisting means the file was already on disk and no request was made
	OutcomeExisting
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeExisting:
		return "existing"
	default:
		return "unknown"
	}
}

// MarshalText lets outcomes appear by name in YAML reports
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
