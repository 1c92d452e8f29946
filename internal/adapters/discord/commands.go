package discord

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

type command string

const (
	cmdJoin    command = "join"
	cmdLeave   command = "leave"
	cmdCurrent command = "current"
	cmdStart   command = "start"
	cmdAdd     command = "add"
	cmdRemove  command = "remove"
	cmdSwap    command = "swap"
	cmdStats   command = "stats"
)

// bare commands must match the whole message.
var bareCommands = map[string]command{
	"!q":       cmdJoin,
	"!queue":   cmdJoin,
	"!del":     cmdLeave,
	"!delete":  cmdLeave,
	"!rg":      cmdCurrent,
	"!current": cmdCurrent,
	"!start":   cmdStart,
	"!start1":  cmdStart,
}

// argCommands take arguments after a space.
var argCommands = map[string]command{
	"!add":    cmdAdd,
	"!remove": cmdRemove,
	"!swap":   cmdSwap,
	"!stats":  cmdStats,
}

var referencePattern = regexp.MustCompile(`^(?:<@!?(\d+)>|(\d+))$`)

// parseCommand maps message text to a command and its argument string.
// Matching is case-sensitive.
func parseCommand(content string) (command, string, bool) {
	if c, ok := bareCommands[content]; ok {
		return c, "", true
	}
	head, rest, _ := strings.Cut(content, " ")
	if c, ok := argCommands[head]; ok {
		return c, strings.TrimSpace(rest), true
	}
	return "", "", false
}

// parseReferences returns user ids from mentions or raw ids, in order, skipping
// anything else and repeats.
func parseReferences(args string) []string {
	ids := lo.FilterMap(strings.Fields(args), func(tok string, _ int) (string, bool) {
		m := referencePattern.FindStringSubmatch(tok)
		if m == nil {
			return "", false
		}
		return lo.Ternary(m[1] != "", m[1], m[2]), true
	})
	return lo.Uniq(ids)
}
