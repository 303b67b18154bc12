package scheduler

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseReconciling
	PhaseCollecting
	PhaseApplying
	PhasePublishing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReconciling:
		return "reconciling"
	case PhaseCollecting:
		return "collecting"
	case PhaseApplying:
		return "applying"
	case PhasePublishing:
		return "publishing"
	default:
		return "unknown"
	}
}
