package authflow

// Status is the server-reported state of a sign-in or sign-up.
type Status string

const (
	StatusNeedsIdentifier     Status = "needs_identifier"
	StatusNeedsFirstFactor    Status = "needs_first_factor"
	StatusNeedsSecondFactor   Status = "needs_second_factor"
	StatusNeedsNewPassword    Status = "needs_new_password"
	StatusMissingRequirements Status = "missing_requirements"
	StatusComplete            Status = "complete"
	StatusAbandoned           Status = "abandoned"
	StatusUnknown             Status = "unknown"
)

// Normalize maps unrecognized wire values to StatusUnknown.
func (s Status) Normalize() Status {
	switch s {
	case StatusNeedsIdentifier,
		StatusNeedsFirstFactor,
		StatusNeedsSecondFactor,
		StatusNeedsNewPassword,
		StatusMissingRequirements,
		StatusComplete,
		StatusAbandoned:
		return s
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusAbandoned
}

// Step is the next UI-visible action implied by a flow status.
type Step int

const (
	StepUnknown Step = iota
	StepCollectIdentifier
	StepFirstFactor
	StepSecondFactor
	StepNewPassword
	StepMissingFields
	StepDone
	StepAbandoned
)

func (s Step) String() string {
	switch s {
	case StepCollectIdentifier:
		return "collect_identifier"
	case StepFirstFactor:
		return "first_factor"
	case StepSecondFactor:
		return "second_factor"
	case StepNewPassword:
		return "new_password"
	case StepMissingFields:
		return "missing_fields"
	case StepDone:
		return "done"
	case StepAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// NextStep maps a server status to the step the caller should present next.
func NextStep(status Status) Step {
	switch status.Normalize() {
	case StatusNeedsIdentifier:
		return StepCollectIdentifier
	case StatusNeedsFirstFactor:
		return StepFirstFactor
	case StatusNeedsSecondFactor:
		return StepSecondFactor
	case StatusNeedsNewPassword:
		return StepNewPassword
	case StatusMissingRequirements:
		return StepMissingFields
	case StatusComplete:
		return StepDone
	case StatusAbandoned:
		return StepAbandoned
	default:
		return StepUnknown
	}
}

// transitions lists the statuses reachable from each status. The empty status
// stands for "no previous snapshot" (the flow was just created).
var transitions = map[Status][]Status{
	"": {
		StatusNeedsIdentifier,
		StatusNeedsFirstFactor,
		StatusNeedsSecondFactor,
		StatusNeedsNewPassword,
		StatusMissingRequirements,
		StatusComplete,
	},
	StatusNeedsIdentifier: {
		StatusNeedsIdentifier,
		StatusNeedsFirstFactor,
		StatusMissingRequirements,
		StatusComplete,
	},
	StatusNeedsFirstFactor: {
		StatusNeedsFirstFactor,
		StatusNeedsSecondFactor,
		StatusNeedsNewPassword,
		StatusMissingRequirements,
		StatusComplete,
	},
	StatusNeedsSecondFactor: {
		StatusNeedsSecondFactor,
		StatusComplete,
	},
	StatusNeedsNewPassword: {
		StatusNeedsNewPassword,
		StatusNeedsSecondFactor,
		StatusComplete,
	},
	StatusMissingRequirements: {
		StatusMissingRequirements,
		StatusComplete,
	},
	StatusComplete:  {StatusComplete},
	StatusAbandoned: {StatusAbandoned},
}

// CanTransition reports whether a flow may move from one server snapshot status to
// the next. Any non-terminal status may move to abandoned.
func CanTransition(from, to Status) bool {
	if from != "" {
		from = from.Normalize()
	}
	to = to.Normalize()
	if from == StatusUnknown || to == StatusUnknown {
		return false
	}
	if to == StatusAbandoned && !from.Terminal() {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
