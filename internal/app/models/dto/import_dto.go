package dto

// SkippedRow records one rejected CSV row and why it was rejected
type SkippedRow struct {
	Line   int    `json:"line" example:"4"`
	Raw    string `json:"raw" example:"Bob Johnson,Physics,abc"`
	Reason string `json:"reason" example:"marks must be a valid number"`
}

// ImportReport summarizes a bulk CSV import. Row failures never abort the
// batch; they are collected here and returned to the caller. Processed
// counts only the rows that were applied, so Processed = Created + Updated.
type ImportReport struct {
	BatchID   string       `json:"batchId" example:"7f6c2b1e-1f2d-4c43-9a93-0d5f2f2f8f11"`
	Processed int          `json:"processed" example:"24"`
	Created   int          `json:"created" example:"20"`
	Updated   int          `json:"updated" example:"4"`
	Skipped   []SkippedRow `json:"skipped"`
}
