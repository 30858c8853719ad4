package model

// QuotaRecord tracks one user's cumulative upload usage. Used never
// decrements, there is no quota reclaim since deletion is out of scope.
type QuotaRecord struct {
	UserID  string          `json:"-"`
	Quota   int64           `json:"quota"`
	Used    int64           `json:"used"`
	Uploads []UploadSummary `json:"uploads"`
}

// Remaining floors at zero so a race that pushes Used past Quota never
// surfaces as a negative number
func (q *QuotaRecord) Remaining() int64 {
	if r := q.Quota - q.Used; r > 0 {
		return r
	}
	return 0
}
