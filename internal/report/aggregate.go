package report

import (
	"fmt"
	"sort"

	"hivetrace/internal/types"
)

// MaxRecentAttacks bounds the recent-attacks list.
const MaxRecentAttacks = 15

// Input carries everything one parse invocation produced, ready to fold.
type Input struct {
	Service      string
	Events       []types.Event // every matched event, in log order
	Sessions     []types.Session
	Actors       map[string]*types.ActorRecord
	Scores       map[string]types.ThreatScore // keyed by actor ID
	LinesSkipped int
}

// Build folds events, sessions and scores into a dashboard-ready Report.
// Pure summation over its input: no hidden state, no wall clock.
func Build(in Input) *types.Report {
	rep := types.NewReport(in.Service)
	rep.LinesSkipped = in.LinesSkipped
	rep.TotalInteractions = len(in.Events)
	rep.UniqueActors = len(in.Actors)
	rep.SessionsObserved = len(in.Sessions)
	if in.Sessions != nil {
		rep.Sessions = in.Sessions
	}

	for _, a := range in.Actors {
		rep.FailedAuths += a.FailedAttempts
		rep.SuccessfulAuths += a.SuccessfulLogins
		rep.ConnectionsOpened += a.ConnectionsOpened
		rep.ConnectionsClosed += a.ConnectionsClosed
	}

	for _, evt := range in.Events {
		rep.ThreatSummary[evt.Level]++
		if evt.Type == types.EventCommand {
			rep.CommandsExecuted++
		}
		rep.HourlyActivity[evt.Timestamp.Hour()]++
		rep.DailyActivity[evt.Timestamp.Format("2006-01-02")]++
	}

	rep.Actors = rankActors(in.Actors, in.Scores)
	rep.RecentAttacks = recentAttacks(in.Events)

	return rep
}

// rankActors orders actors by score descending, interaction count
// descending, first-seen ascending, then ID as the final deterministic
// tie-break.
func rankActors(actors map[string]*types.ActorRecord, scores map[string]types.ThreatScore) []types.RankedActor {
	ranked := make([]types.RankedActor, 0, len(actors))
	for id, rec := range actors {
		sc := scores[id]
		ranked = append(ranked, types.RankedActor{
			ActorRecord: *rec,
			Score:       sc.Score,
			Level:       sc.Level,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Interactions != b.Interactions {
			return a.Interactions > b.Interactions
		}
		if !a.FirstSeen.Equal(b.FirstSeen) {
			return a.FirstSeen.Before(b.FirstSeen)
		}
		return a.ID < b.ID
	})

	return ranked
}

// recentAttacks picks the newest MEDIUM-or-higher events, newest first.
func recentAttacks(events []types.Event) []types.Attack {
	attacks := []types.Attack{}
	for _, evt := range events {
		if !evt.Level.AtLeast(types.ThreatMedium) {
			continue
		}
		actor := evt.IP
		if actor == "" && evt.User != "" {
			actor = types.SyntheticID(evt.User)
		}
		attacks = append(attacks, types.Attack{
			Timestamp: evt.Timestamp,
			Kind:      evt.Kind,
			Actor:     actor,
			Level:     evt.Level,
			Details:   attackDetails(evt),
		})
	}

	// Newest first; equal timestamps keep log order among themselves.
	sort.SliceStable(attacks, func(i, j int) bool {
		return attacks[i].Timestamp.After(attacks[j].Timestamp)
	})

	if len(attacks) > MaxRecentAttacks {
		attacks = attacks[:MaxRecentAttacks]
	}
	return attacks
}

func attackDetails(evt types.Event) string {
	switch evt.Type {
	case types.EventRequest:
		return fmt.Sprintf("%s %s from %s", evt.Method, evt.Verb, evt.IP)
	case types.EventCommand:
		return fmt.Sprintf("command %q by %s", evt.Verb, evt.User)
	case types.EventQuery:
		details := evt.Verb
		if len(details) > 100 {
			details = details[:100] + "..."
		}
		return details
	case types.EventAuthFailed:
		return fmt.Sprintf("failed login for %s", evt.User)
	case types.EventAuthSuccess:
		return fmt.Sprintf("successful login for %s", evt.User)
	default:
		return evt.Raw
	}
}
