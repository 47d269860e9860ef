package platform

import "strings"

// Intent is the classified meaning of a driver's free-text SMS reply.
type Intent int

const (
	// IntentAmbiguous means the reply matched neither vocabulary; the
	// caller should ask for clarification rather than guess.
	IntentAmbiguous Intent = iota

	// IntentAccept means the driver accepted the offer.
	IntentAccept

	// IntentDecline means the driver declined the offer.
	IntentDecline
)

// String implements fmt.Stringer.
func (i Intent) String() string {
	switch i {
	case IntentAccept:
		return "accept"
	case IntentDecline:
		return "decline"
	default:
		return "ambiguous"
	}
}

var acceptVocabulary = map[string]bool{
	"yes":     true,
	"y":       true,
	"yeah":    true,
	"yep":     true,
	"ok":      true,
	"okay":    true,
	"sure":    true,
	"accept":  true,
	"confirm": true,
	"in":      true,
}

var declineVocabulary = map[string]bool{
	"no":      true,
	"n":       true,
	"nope":    true,
	"nah":     true,
	"decline": true,
	"reject":  true,
	"pass":    true,
	"cant":    true,
	"out":     true,
}

// ClassifyReply maps a free-text SMS reply to a closed set of intents.
// Classification is deliberately conservative: anything outside the two
// vocabularies is ambiguous, never silently treated as a decline.
func ClassifyReply(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimFunc(normalized, func(r rune) bool {
		return r == '.' || r == '!' || r == ',' || r == '\'' || r == '"'
	})
	normalized = strings.ReplaceAll(normalized, "'", "")

	if acceptVocabulary[normalized] {
		return IntentAccept
	}
	if declineVocabulary[normalized] {
		return IntentDecline
	}
	return IntentAmbiguous
}
