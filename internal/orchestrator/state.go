package orchestrator

// State is one stage of the deployment state machine (spec.md §4.9),
// modeled as explicit sequential transitions in Deploy rather than a generic
// FSM library — the graph has eleven fixed states and never needs to be
// reconfigured at runtime, so a library would buy nothing but indirection.
type State string

const (
	StateIdle           State = "idle"
	StateLocked         State = "locked"
	StateValidated      State = "validated"
	StateTransformed    State = "transformed"
	StateBackedUp       State = "backed_up"
	StateWriting        State = "writing"
	StateAudited        State = "audited"
	StateDone           State = "done"
	StateRollingBack    State = "rolling_back"
	StateRecovered      State = "recovered"
	StateFailedFatally  State = "failed_fatally"
)
