// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"strings"

	"github.com/pdiddy/collab-engine/internal/console"
)

// fatalPattern maps a known provider error substring to the user-facing
// notice shown when it matches.
type fatalPattern struct {
	substr  string
	message string
	helpURL string
}

// fatalPatterns is the ordered table of provider errors the user must fix
// before retrying: billing, credentials, and permission conditions. Order
// matters — the first match wins, so specific API codes precede the bare
// HTTP status fallbacks. Matching is case-insensitive substring search
// over the error string, which keeps the classifier identical across all
// three transports. Per prd003-errors R1.1-R1.3.
var fatalPatterns = []fatalPattern{
	{
		substr:  "insufficient_quota",
		message: "API quota exceeded. Check your plan and billing details.",
		helpURL: "https://platform.openai.com/account/billing",
	},
	{
		substr:  "invalid_api_key",
		message: "Invalid API key. Check the key in .secrets/ or your environment.",
		helpURL: "https://platform.openai.com/api-keys",
	},
	{
		substr:  "rate_limit_exceeded",
		message: "Rate limit exceeded. Wait a moment or upgrade your plan.",
		helpURL: "https://platform.openai.com/account/limits",
	},
	{
		substr:  "resource_exhausted",
		message: "Gemini API quota exhausted. Check your quota and billing.",
		helpURL: "https://ai.google.dev/gemini-api/docs/rate-limits",
	},
	{
		substr:  "invalid_argument",
		message: "The provider rejected the request as invalid. Check the model name and API key.",
		helpURL: "",
	},
	{
		substr:  "permission_denied",
		message: "Permission denied by the provider. Check that your key has access to this model.",
		helpURL: "",
	},
	{
		substr:  "unauthenticated",
		message: "Authentication failed. Check your API key.",
		helpURL: "",
	},
	{
		substr:  "401",
		message: "Authentication failed (HTTP 401). Check your API key.",
		helpURL: "",
	},
	{
		substr:  "403",
		message: "Access forbidden (HTTP 403). Check your key's permissions.",
		helpURL: "",
	},
	{
		substr:  "429",
		message: "Too many requests (HTTP 429). Wait a moment and retry.",
		helpURL: "",
	},
}

// Classify inspects a provider error and returns the fatal notice for it,
// or nil when the error is transient. The notice's Code is the matched
// pattern.
func Classify(err error) *console.FatalNotice {
	if err == nil {
		return nil
	}
	text := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(text, p.substr) {
			return &console.FatalNotice{
				Message: p.message,
				Code:    p.substr,
				HelpURL: p.helpURL,
			}
		}
	}
	return nil
}

// Logger is the leveled output surface the agent writes to. Both
// *console.Console and *console.Section satisfy it; fan-out tasks pass a
// section so interleaved lines stay attributed.
type Logger interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Dim(format string, args ...any)
	FatalError(message, code, helpURL string)
}

// handleAPIError routes a provider error through the classifier. Fatal
// errors surface a notice and return true, telling the caller to abort
// the phase. Transient errors log a warning and return false; the
// caller's loop breaks with whatever it accumulated. Per prd003-errors
// R2.1-R2.3.
func handleAPIError(log Logger, phase string, err error) bool {
	if notice := Classify(err); notice != nil {
		log.FatalError(notice.Message, notice.Code, notice.HelpURL)
		return true
	}
	log.Warning("API Error in %s: %v", phase, err)
	return false
}
