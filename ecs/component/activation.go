package component

// ToyType tags what kind of toy an entity is.
type ToyType string

const (
	ToyFairy         ToyType = "fairy"
	ToyPaperAirplane ToyType = "paper_airplane"
	ToyYoyo          ToyType = "yoyo"
)

// Activation gates every per-character system. Inactive characters are
// skipped until the host places them in the world.
type Activation struct {
	Toy    ToyType
	Active bool
}

var ActivationComponent = NewComponent[Activation]("activation")
