package engine

// CommandType names an operation on a session.
type CommandType string

const (
	CmdStart    CommandType = "start"
	CmdPause    CommandType = "pause"
	CmdResume   CommandType = "resume"
	CmdTick     CommandType = "tick"
	CmdActivate CommandType = "activate"
	CmdResolve  CommandType = "resolve"
	CmdRestart  CommandType = "restart"
)

// Command is a request to change a session.
type Command struct {
	Type     CommandType `json:"type"`
	ActionID string      `json:"action_id,omitempty"` // CmdActivate
	Choice   *int        `json:"choice,omitempty"`    // CmdResolve; nil for events without choices
}

func Start() Command { return Command{Type: CmdStart} }
func Pause() Command { return Command{Type: CmdPause} }
func Resume() Command { return Command{Type: CmdResume} }
func Tick() Command { return Command{Type: CmdTick} }
func Restart() Command { return Command{Type: CmdRestart} }

func Activate(actionID string) Command {
	return Command{Type: CmdActivate, ActionID: actionID}
}

// Resolve answers the presented event. Pass a negative index for events without choices.
func Resolve(choice int) Command {
	if choice < 0 {
		return Command{Type: CmdResolve}
	}
	return Command{Type: CmdResolve, Choice: &choice}
}

// Result reports what a step did.
type Result struct {
	Applied       bool           // false when the command was rejected
	Notifications []Notification // messages produced by the step, in order
}
