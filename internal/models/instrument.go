package models

// Instrument represents a tradeable asset with stored price history.
// Rows are maintained by the collection pipeline and are read-only here.
type Instrument struct {
	ID                   int64  `db:"id" json:"id"`
	Symbol               string `db:"symbol" json:"symbol"`
	Name                 string `db:"name" json:"name"`
	Active               bool   `db:"active" json:"active"`
	HasSufficientHistory bool   `db:"has_sufficient_history" json:"has_sufficient_history"`
}

// Eligible reports whether the instrument takes part in batch runs
func (i *Instrument) Eligible() bool {
	return i.Active && i.HasSufficientHistory
}
