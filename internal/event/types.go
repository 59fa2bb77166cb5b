package event

const (
	EventIntentChanged  = "intent.changed"
	EventPhaseChanged   = "phase.changed"
	EventLaneChanged    = "lane.changed"
	EventConfigReloaded = "config.reloaded"
)

type IntentChangedEvent struct {
	Left     bool
	Right    bool
	Modality string
}

type PhaseChangedEvent struct {
	From string
	To   string
}

type LaneChangedEvent struct {
	From    int
	To      int
	TargetX float64
}

type ConfigReloadedEvent struct {
	Path string
}
