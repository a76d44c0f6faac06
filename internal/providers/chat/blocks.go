package chat

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Plain builds a plain_text object.
func Plain(s string) *Text {
	return &Text{Type: "plain_text", Text: s, Emoji: true}
}

// Markdown builds an mrkdwn object.
func Markdown(s string) *Text {
	return &Text{Type: "mrkdwn", Text: s}
}

// Option is a select menu option.
type Option struct {
	Text  *Text  `json:"text"`
	Value string `json:"value"`
}

// Element is an interactive input element.
type Element struct {
	Type          string   `json:"type"`
	ActionID      string   `json:"action_id"`
	Placeholder   *Text    `json:"placeholder,omitempty"`
	Multiline     bool     `json:"multiline,omitempty"`
	Options       []Option `json:"options,omitempty"`
	InitialOption *Option  `json:"initial_option,omitempty"`
}

// Block is the subset of Block Kit layout blocks this service sends.
type Block struct {
	Type     string   `json:"type"`
	BlockID  string   `json:"block_id,omitempty"`
	Text     *Text    `json:"text,omitempty"`
	Fields   []*Text  `json:"fields,omitempty"`
	Label    *Text    `json:"label,omitempty"`
	Element  *Element `json:"element,omitempty"`
	Optional bool     `json:"optional,omitempty"`
	Elements []*Text  `json:"elements,omitempty"`
}

// Section is a text section.
func Section(text *Text, fields ...*Text) Block {
	return Block{Type: "section", Text: text, Fields: fields}
}

// Header is a header block.
func Header(s string) Block {
	return Block{Type: "header", Text: Plain(s)}
}

// Context is a small-print context block.
func Context(texts ...*Text) Block {
	return Block{Type: "context", Elements: texts}
}

// Divider is a divider block.
func Divider() Block {
	return Block{Type: "divider"}
}

// View is a modal view.
type View struct {
	Type            string  `json:"type"`
	CallbackID      string  `json:"callback_id"`
	Title           *Text   `json:"title"`
	Submit          *Text   `json:"submit,omitempty"`
	Close           *Text   `json:"close,omitempty"`
	PrivateMetadata string  `json:"private_metadata,omitempty"`
	Blocks          []Block `json:"blocks"`
}
