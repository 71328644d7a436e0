package transcript

// Role is the conversational author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleUnknown   Role = "unknown"
)

// Platform identifies the chat product a share page was rendered by.
type Platform string

const (
	PlatformChatGPT Platform = "chatgpt"
	PlatformClaude  Platform = "claude"
	PlatformGemini  Platform = "gemini"
)

// Message is a single turn recovered from a share page.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"` // markdown-flavoured rendered text
	Timestamp string `json:"timestamp,omitempty"`
}

// Result is the normalized transcript of one share page. It is built once
// per successful extraction and not modified afterwards.
type Result struct {
	Platform Platform       `json:"platform"`
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Messages []Message      `json:"messages"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CountRole returns how many messages carry the given role.
func (r *Result) CountRole(role Role) int {
	n := 0
	for _, m := range r.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
