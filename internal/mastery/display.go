package mastery

// Status is the single label shown next to a fact.
type Status string

const (
	StatusNew        Status = "new"
	StatusLearning   Status = "learning"
	StatusMastered   Status = "mastered"
	StatusStruggling Status = "struggling"
)

// StatusOf picks the label for a fact. Struggling wins over mastered so a
// slipping fact is visible even after it was mastered.
func StatusOf(f Flags) Status {
	switch {
	case f.Attempts == 0:
		return StatusNew
	case f.IsStruggling:
		return StatusStruggling
	case f.IsMastered:
		return StatusMastered
	default:
		return StatusLearning
	}
}
