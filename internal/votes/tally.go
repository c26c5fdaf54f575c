// Package votes reconstructs who voted on a poll post from its reactions.
package votes

import (
	"context"
	"fmt"

	"go-training-bot/internal/platform"
)

const (
	Yes = "👍"
	No  = "👎"
)

// Affordances are the two recognized vote reactions in the order they are attached.
var Affordances = []string{Yes, No}

// Tally is the set of member ids that voted on one post, either way.
type Tally map[string]struct{}

func (t Tally) Has(memberID string) bool {
	_, ok := t[memberID]
	return ok
}

type Reader struct {
	gw platform.Gateway
}

func NewReader(gw platform.Gateway) *Reader {
	return &Reader{gw: gw}
}

// Tally enumerates both affordances on the post and keeps non-bot reactors.
// Nothing is cached; every call reads the current reactions.
func (r *Reader) Tally(ctx context.Context, channelID, messageID string) (Tally, error) {
	voted := Tally{}
	for _, emoji := range Affordances {
		users, err := r.gw.Reactors(ctx, channelID, messageID, emoji)
		if err != nil {
			return nil, fmt.Errorf("reactors %s on %s: %w", emoji, messageID, err)
		}
		for _, u := range users {
			if u.Bot {
				continue
			}
			voted[u.ID] = struct{}{}
		}
	}
	return voted, nil
}
