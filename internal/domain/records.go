package domain

// RiskProfile selects which market advice a user is shown.
type RiskProfile string

const (
	RiskConservative RiskProfile = "CONSERVATIVE"
	RiskModerate     RiskProfile = "MODERATE"
	RiskRisky        RiskProfile = "RISKY"
)

// AuthSession is the record kept at (USER#<id>, AUTH) while a user holds an
// authenticated session. It is written by the external auth flow; this
// system only reads it and reacts to its stream events.
type AuthSession struct {
	PK     string
	SK     string
	Active bool
	TTL    int64
}

// Record is a generic single-table item returned by prefix queries. Tool
// handlers pass these through to the reasoning system, which formats them
// into natural language, so attribute names are preserved as stored.
type Record struct {
	PK         string
	SK         string
	Attributes map[string]string
}
