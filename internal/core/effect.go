package core

// EffectKind tags the closed set of outbound side effects the reducer can
// produce. The reducer never performs I/O itself; it returns these as data
// for the adapter to execute.
type EffectKind int

const (
	EffectBroadcastRender EffectKind = iota
	EffectSendEditorCommand
	EffectNotice
)

// EditorCommandKind enumerates the only five things that may be sent to the
// editor extension. No keystroke leaves the daemon by any path other than
// these five.
type EditorCommandKind int

const (
	CommandSendText EditorCommandKind = iota
	CommandSendKey
	CommandFocusTerminal
	CommandScrollTerminal
	CommandOpenURI
)

// EditorKey is the closed set of keys SendKey may deliver.
type EditorKey int

const (
	KeyCtrlC EditorKey = iota
	KeyEnter
	KeyEsc
)

func (k EditorKey) String() string {
	switch k {
	case KeyCtrlC:
		return "ctrl_c"
	case KeyEnter:
		return "enter"
	case KeyEsc:
		return "esc"
	default:
		return "unknown"
	}
}

// EditorCommand is the payload of an EffectSendEditorCommand.
type EditorCommand struct {
	Kind    EditorCommandKind
	Target  *int // terminal index; nil means "the focused terminal"
	Text    string
	Newline bool
	Key     EditorKey
	Delta   int32
	URI     string // CommandOpenURI
}

func SendTextCommand(text string, newline bool) EditorCommand {
	return EditorCommand{Kind: CommandSendText, Text: text, Newline: newline}
}

func SendKeyCommand(key EditorKey) EditorCommand {
	return EditorCommand{Kind: CommandSendKey, Key: key}
}

func FocusTerminalCommand(index int) EditorCommand {
	return EditorCommand{Kind: CommandFocusTerminal, Target: &index}
}

func ScrollTerminalCommand(delta int32) EditorCommand {
	return EditorCommand{Kind: CommandScrollTerminal, Delta: delta}
}

func OpenURICommand(uri string) EditorCommand {
	return EditorCommand{Kind: CommandOpenURI, URI: uri}
}

// SideEffect is the flat tagged-union of everything a reducer step can ask
// an adapter to do.
type SideEffect struct {
	Kind EffectKind

	Render  *RenderModel   // EffectBroadcastRender
	Command *EditorCommand // EffectSendEditorCommand
	Message string         // EffectNotice
}

func broadcastRender(m RenderModel) SideEffect {
	return SideEffect{Kind: EffectBroadcastRender, Render: &m}
}

func sendEditorCommand(c EditorCommand) SideEffect {
	return SideEffect{Kind: EffectSendEditorCommand, Command: &c}
}

func notice(message string) SideEffect {
	return SideEffect{Kind: EffectNotice, Message: message}
}
