package state

// Chat message types.
const (
	TypeStandard = "standard"
	TypePose     = "pose"
	TypeWhisper  = "whisper"
)

// ChatMessage is one chat line. Ephemeral: enriched at receipt time
// and handed to observers, never stored in the replica.
type ChatMessage struct {
	ID        string  `json:"id,omitempty"`
	ChannelID string  `json:"channel_id"`
	Username  string  `json:"username"`
	To        string  `json:"to,omitempty"`
	Type      string  `json:"type,omitempty"`
	Content   string  `json:"content"`
	Date      float64 `json:"date,omitempty"`

	// Enrichment, filled in on receipt.
	Text     string `json:"text,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	FullName string `json:"full_name,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}
