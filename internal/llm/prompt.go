package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cognicore/feedscope/pkg/feedscope/rank"
	"github.com/cognicore/feedscope/pkg/feedscope/intent"
)

// MaxPromptRecords caps how many feed records a narration prompt carries.
const MaxPromptRecords = 25

const interpretSystem = "You extract structured intent from questions about camera feeds. Reply with a single JSON object and nothing else."

const narrateSystem = "You are a helpful analyst answering questions about camera feeds. Use only the data provided."

func interpretPrompt(question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this camera feed query and extract the intent and parameters.\nQuery: %q\n\n", question)
	b.WriteString("Extract:\n")
	b.WriteString("1. Intent type (filter, search, analyze, get_info)\n")
	b.WriteString("2. Theater (CONUS, PAC, EUR, ME, AFR, ARC) if mentioned\n")
	b.WriteString("3. Codec (H264, H265, AV1, VP9, MPEG2) if mentioned\n")
	b.WriteString("4. Resolution requirements (4K, 1080p, 720p, etc.)\n")
	b.WriteString("5. Quality requirements (best clarity, high quality, etc.)\n")
	b.WriteString("6. Latency requirements (low latency, real-time, etc.)\n")
	b.WriteString("7. Other filters (encrypted, civilian safe, etc.)\n\n")
	b.WriteString(`Return JSON:
{
  "intent": "filter|search|analyze|get_info",
  "theater": "theater_code_or_null",
  "codec": "codec_or_null",
  "resolution": "resolution_requirement_or_null",
  "quality": "quality_requirement_or_null",
  "latency": "latency_requirement_or_null",
  "other_filters": {"key": "value"}
}
`)
	return b.String()
}

// narratePrompt embeds the outcome as JSON. Large results are truncated
// to MaxPromptRecords records; the count stays exact.
func narratePrompt(question string, in intent.Intent, out intent.Outcome) (string, error) {
	intentJSON, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", err
	}

	data := map[string]any{"call": out.Call}
	if out.Error != "" {
		data["error"] = out.Error
	}
	if out.Result != nil {
		res := *out.Result
		if len(res.Records) > MaxPromptRecords {
			res.Records = res.Records[:MaxPromptRecords]
			data["truncated"] = true
		}
		data["result"] = res
	}
	resultJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\nIntent:\n%s\n\nData results:\n%s\n\n", question, intentJSON, resultJSON)
	b.WriteString("Guidelines:\n")
	b.WriteString("1. Answer in clear natural language.\n")
	b.WriteString("2. Include specific feed IDs when relevant.\n")
	b.WriteString("3. Explain technical terms in plain words.\n")
	b.WriteString("4. When filtering, state the count and key details.\n")
	w := rank.QualityWeights
	fmt.Fprintf(&b, "5. For quality questions, explain the score: %d points for resolution of at least 1920x1080, %d for a modern codec (H265, AV1, VP9), %d for latency of %d ms or less.\n",
		w.Resolution, w.Codec, w.Latency, rank.LowLatencyMS)
	b.WriteString("\nResponse:\n")
	return b.String(), nil
}
