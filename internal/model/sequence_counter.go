package model

// SequenceCounter issues campaign ids. Count is the id of the next campaign.
type SequenceCounter struct {
	Count     uint64 `db:"count" json:"count"`
	Authority string `db:"authority" json:"authority"`
}

// Advance moves the counter forward by exactly one.
func (s *SequenceCounter) Advance() error {
	next, err := CheckedAddU64(s.Count, 1)
	if err != nil {
		return err
	}
	s.Count = next
	return nil
}
