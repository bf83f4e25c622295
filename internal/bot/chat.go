// Package bot wires Telegram chat traffic to the lookup pipeline: free-text
// classification, the single-concurrency scrape queue, cached replies, photo
// enrichment, and inline-button callbacks.
package bot

// Button is one inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// ChatClient abstracts the messaging surface so the orchestrator can be
// tested against a fake. rows may be nil for plain messages.
type ChatClient interface {
	Send(chatID int64, text string, rows [][]Button) (messageID int, err error)
	Edit(chatID int64, messageID int, text string, rows [][]Button) error
	SendPhoto(chatID int64, url, caption string, rows [][]Button) error
	Typing(chatID int64)
}
