package scoring

import (
	"fmt"
	"strings"

	"github.com/flowzoneai/flowzone/internal/metrics"
)

// BuildScoringPrompt renders the metric snapshot as a natural-language
// instruction requesting a strict JSON result.
func BuildScoringPrompt(snap metrics.Snapshot) string {
	var b strings.Builder

	b.WriteString("You are a focus analysis AI. Analyze this real-time behavioral data and respond ONLY with valid JSON.\n\n")
	b.WriteString("Data:\n")
	fmt.Fprintf(&b, "- Typing Speed: %.1f keys/min (Good: 40-80)\n", snap.TypingRatePerMin)
	fmt.Fprintf(&b, "- Mouse Movements: %d (Low is better for focus)\n", snap.PointerEventCount)
	fmt.Fprintf(&b, "- Tab Switches: %d (Distractions)\n", snap.DistractionCount)
	fmt.Fprintf(&b, "- Idle Time: %.0f seconds\n", snap.IdleDuration.Seconds())
	fmt.Fprintf(&b, "- Session Duration: %d minutes\n", int(snap.SessionElapsed.Minutes()))
	fmt.Fprintf(&b, "- Time: %d:00\n", snap.HourOfDay)

	b.WriteString(`
Calculate a flow score (0-100) where:
- High consistent typing + low mouse movement + no tab switches = 90-100%
- Moderate activity = 60-80%
- High distractions or idle = 20-40%

Respond with this EXACT JSON format:
{
  "flowScore": 75,
  "distractions": ["Tab switching detected"],
  "fatigueLevel": 25,
  "recommendation": "Maintain focus",
  "breakInMinutes": 20,
  "insight": "Your typing rhythm is consistent, indicating deep concentration"
}`)

	return b.String()
}
