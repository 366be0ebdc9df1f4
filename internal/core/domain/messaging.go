package domain

// Incoming is one inbound chat event, either a text message or a button press.
type Incoming struct {
	UserID   int64
	ChatID   int64
	Username string
	Text     string
	Command  string
	Args     string
	ImageRef string
	IsButton bool
}

func (in Incoming) IsCommand() bool {
	return in.Command != ""
}

type LinkButton struct {
	Text string
	URL  string
}

type OutgoingMessage struct {
	ChatID         int64
	Text           string
	ImageRef       string
	Keyboard       [][]string
	RemoveKeyboard bool
	Link           *LinkButton
}
