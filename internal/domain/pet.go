package domain

// Pet belongs to exactly one owner-side user.
type Pet struct {
	ID           int64
	OwnerID      int64
	Name         string
	Breed        string
	Weight       float32
	Allergies    *string
	SpecialNeeds *string
}
