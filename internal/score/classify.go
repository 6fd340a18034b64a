package score

import (
	"strings"

	"hivetrace/internal/types"
)

// commandTiers is the fixed three-tier keyword table for command
// classification. A command matches the first tier containing one of its
// keywords as a case-insensitive substring; no match means INFO.
var commandTiers = []struct {
	level    types.ThreatLevel
	keywords []string
}{
	{types.ThreatHigh, []string{
		"sudo", "su", "passwd", "useradd", "userdel", "chmod 777",
		"rm -rf", "wget", "curl", "nc", "netcat", "ps aux",
	}},
	{types.ThreatMedium, []string{
		"ls", "cat", "whoami", "id", "uname", "pwd", "history", "find",
	}},
	{types.ThreatLow, []string{
		"echo", "date", "uptime", "df", "free",
	}},
}

// ClassifyCommand determines the threat level of a shell command.
func ClassifyCommand(command string) types.ThreatLevel {
	lower := strings.ToLower(strings.TrimSpace(command))
	for _, tier := range commandTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.level
			}
		}
	}
	return types.ThreatInfo
}
