package core

import (
	"strings"
	"time"
)

// Chat reply types, matching the alert severities the page shows them with.
const (
	ChatInfo    = "info"
	ChatSuccess = "success"
	ChatWarning = "warning"
	ChatDanger  = "danger"
)

// MaxChatTurns bounds the transcript kept per session.
const MaxChatTurns = 50

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Message string `json:"bot_message"`
	Type    string `json:"type"`
}

// ChatTurn is one line of a chat transcript.
type ChatTurn struct {
	FromUser bool      `json:"from_user"`
	Text     string    `json:"text"`
	Type     string    `json:"type,omitempty"`
	At       time.Time `json:"at"`
}

var (
	riskWords     = []string{"risk", "safe", "fraud", "dangerous", "suspicious"}
	largeWords    = []string{"million", "large", "high", "big"}
	locationWords = []string{"russia", "turkey", "usa", "china", "uae", "foreign", "international"}
	timeWords     = []string{"night", "midnight", "early", "morning", "2am", "3am", "4am"}
	modelWords    = []string{"feature", "model", "accuracy", "auc", "performance"}
	helpWords     = []string{"help", "how", "what", "guide", "support"}
)

var (
	replyDefault = ChatReply{
		Message: "Thank you for your question. How can FraudGuard help protect your bank today?",
		Type:    ChatInfo,
	}
	replyHighRisk = ChatReply{
		Message: "⚠️ HIGH RISK ALERT: Large transactions may trigger fraud alerts, especially if combined with night hours or foreign locations. Always verify with your bank!",
		Type:    ChatDanger,
	}
	replyLowRisk = ChatReply{
		Message: "✅ Risk assessment: Your transaction appears safe based on normal patterns. Monitor for unusual activity.",
		Type:    ChatSuccess,
	}
	replyLocation = ChatReply{
		Message: "🌍 Foreign transactions may trigger alerts if combined with high amounts or unusual hours. Always verify location and amount before confirming.",
		Type:    ChatWarning,
	}
	replyTime = ChatReply{
		Message: "🌙 Night transactions (12 AM - 5 AM) are flagged as potentially risky. Combine with other factors for full risk assessment.",
		Type:    ChatWarning,
	}
	replyModel = ChatReply{
		Message: "📊 FraudGuard uses XGBoost & LightGBM models with 99.1% AUC. Real-time risk scoring combines ML predictions with rule-based fraud signatures.",
		Type:    ChatInfo,
	}
	replyHelp = ChatReply{
		Message: "💡 Use FraudGuard to: (1) Predict fraud risk for transactions, (2) View transaction history, (3) Get real-time alerts, (4) Export reports. Visit /about for more info!",
		Type:    ChatInfo,
	}
)

// ChatAnswer picks the assistant reply for message by keyword. Words match
// anywhere in the lowercased message; the first matching group wins.
func ChatAnswer(message string) ChatReply {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, riskWords) && containsAny(m, largeWords):
		return replyHighRisk
	case containsAny(m, riskWords):
		return replyLowRisk
	case containsAny(m, locationWords):
		return replyLocation
	case containsAny(m, timeWords):
		return replyTime
	case containsAny(m, modelWords):
		return replyModel
	case containsAny(m, helpWords):
		return replyHelp
	}
	return replyDefault
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// AppendChat adds the user's message and its reply to turns, keeping the
// last MaxChatTurns entries.
func AppendChat(turns []ChatTurn, message string, reply ChatReply, at time.Time) []ChatTurn {
	turns = append(turns,
		ChatTurn{FromUser: true, Text: message, At: at},
		ChatTurn{Text: reply.Message, Type: reply.Type, At: at},
	)
	if len(turns) > MaxChatTurns {
		turns = turns[len(turns)-MaxChatTurns:]
	}
	return turns
}
