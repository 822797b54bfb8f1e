package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

type Stash struct {
	stash []stashElem
}

type stashElem struct {
	msg    any
	sender *actor.PID
}

func (stash *Stash) Stash(ctx actor.Context, msg any) {
	stash.stash = append(stash.stash, stashElem{
		msg:    msg,
		sender: ctx.Sender(),
	})
}

// StashReplacing overwrites the first stashed message matching same, keeping
// its position, or stashes msg at the end. It reports whether it replaced.
func (stash *Stash) StashReplacing(ctx actor.Context, msg any, same func(old any) bool) bool {
	for i := range stash.stash {
		if same(stash.stash[i].msg) {
			stash.stash[i] = stashElem{
				msg:    msg,
				sender: ctx.Sender(),
			}
			return true
		}
	}
	stash.Stash(ctx, msg)
	return false
}

func (stash *Stash) Len() int {
	return len(stash.stash)
}

func (stash *Stash) UnstashAll(ctx actor.Context) {
	for _, elem := range stash.stash {
		ctx.RequestWithCustomSender(ctx.Self(), elem.msg, elem.sender)
	}
	stash.stash = nil
}

func (stash *Stash) UnstashOldest(ctx actor.Context) {
	if len(stash.stash) > 0 {
		first := stash.stash[0]
		ctx.RequestWithCustomSender(ctx.Self(), first.msg, first.sender)
		stash.stash = stash.stash[1:]
	}
}
