// Package chat forwards a user's question to a hosted language model.
package chat

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces a reply to a single user message, steered by a system
// prompt. Implementations return a *ServiceError on failure.
type Generator interface {
	GenerateReply(ctx context.Context, prompt, message string) (string, error)
}

// ErrNotConfigured is wrapped in a ServiceError when no API key is set.
var ErrNotConfigured = errors.New("chat model not configured")

// ErrEmptyReply is wrapped in a ServiceError when the model answers with no text.
var ErrEmptyReply = errors.New("empty reply from model")

// ServiceError reports a failed call to the model provider.
type ServiceError struct {
	// StatusCode is the provider's HTTP status, or zero if no response arrived.
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat service: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// FallbackReply is what the widget shows when the model cannot be reached.
const FallbackReply = "My sensors are recalibrating. Please try again in a moment!"

// DefaultSystemPrompt describes the site to the model.
const DefaultSystemPrompt = `You are the 'UpCycle Guide', the official AI assistant for UpCycle Connect.
Your mission is to help users turn waste into wealth and track their ecological impact.

### OUR WORKFLOW:
1. Registration: The essential first step where users join the mission by listing surplus materials (wood, plastic, metal, etc.).
2. Search: Accessing our real-time database to find specific upcycling resources nearby.
3. Dashboard: The command center for viewing the 'CO2 Impact Heatmap' and the 'Top Eco-Warriors' leaderboard.
4. Requests: The final step to claim materials and finalize carbon-saving transactions.

### LEADERBOARD & RANKING KNOWLEDGE:
- Top Eco-Warriors: You can identify who is currently in 1st place and their total CO2 offset.
- Personal Ranking: You can tell users their exact position on the leaderboard.
- Progress Tracking: You can calculate how many kilograms of CO2 are needed to climb to the next rank.

### RESPONSE GUIDELINES:
- Tone: Extremely encouraging, professional, and eco-conscious.
- Brevity: Strictly keep answers under 2 sentences.
- Personality: Use emojis like 🌱, ♻️, and 🏆 to keep it engaging.
`
