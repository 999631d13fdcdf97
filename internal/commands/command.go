// Package commands parses and executes operator text commands.
package commands

import "strings"

// Kind identifies one operator command.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindShow
	KindRecent
	KindRegen
	KindDM
	KindPitch
	KindInvite
	KindFav
	KindIgnore
	KindStats
)

func (k Kind) String() string {
	switch k {
	case KindHelp:
		return "help"
	case KindShow:
		return "show"
	case KindRecent:
		return "recent"
	case KindRegen:
		return "regen"
	case KindDM:
		return "dm"
	case KindPitch:
		return "pitch"
	case KindInvite:
		return "invite"
	case KindFav:
		return "fav"
	case KindIgnore:
		return "ignore"
	case KindStats:
		return "stats"
	default:
		return "unknown"
	}
}

// Command is one parsed operator command. LeadID is empty for commands
// that take no argument, and for argument-taking commands typed without
// one (the interpreter replies with usage in that case).
type Command struct {
	Kind   Kind
	LeadID string
}

var verbs = map[string]Kind{
	"help":   KindHelp,
	"show":   KindShow,
	"recent": KindRecent,
	"regen":  KindRegen,
	"dm":     KindDM,
	"pitch":  KindPitch,
	"invite": KindInvite,
	"fav":    KindFav,
	"ignore": KindIgnore,
	"stats":  KindStats,
}

// Parse turns raw message text into a Command. A leading slash and a
// "@botname" suffix on the verb are accepted. Anything that is not a
// known verb parses as KindUnknown so ordinary conversation is never
// mistaken for a command.
func Parse(text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{Kind: KindUnknown}
	}

	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.Index(verb, "@"); at != -1 {
		verb = verb[:at]
	}

	kind, ok := verbs[verb]
	if !ok {
		return Command{Kind: KindUnknown}
	}

	cmd := Command{Kind: kind}
	if len(fields) > 1 {
		// Lead IDs are ULIDs, canonically uppercase.
		cmd.LeadID = strings.ToUpper(fields[1])
	}
	return cmd
}

// needsLead reports whether the command kind requires a lead argument.
func needsLead(k Kind) bool {
	switch k {
	case KindShow, KindRecent, KindRegen, KindDM, KindPitch, KindInvite, KindFav, KindIgnore:
		return true
	default:
		return false
	}
}
