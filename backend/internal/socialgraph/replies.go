package socialgraph

import (
	"iter"
	"time"
)

// InferReplies scans a channel and yields probable reply pairs.
//
// For each anchor message, the following messages are walked in order.
// The walk for that anchor stops at the first message by the anchor's own
// author, or at the first message further than the reply window away.
// Every message before that point is yielded as a reply to the anchor.
//
// Elapsed time is the absolute difference of the two timestamps, so the
// result does not depend on whether the channel is stored oldest or newest
// first. The window is compared at full precision, so a gap of 20.5s does not
// pair under a 20s window. Each range over the returned sequence is an
// independent pass.
func (e *Engine) InferReplies(ch Channel) iter.Seq[ReplyPair] {
	return func(yield func(ReplyPair) bool) {
		timed := e.timeline(ch)
		for i, anchor := range timed {
			for _, cand := range timed[i+1:] {
				if cand.msg.Author.ID == anchor.msg.Author.ID {
					break
				}
				elapsed := absDuration(cand.at.Sub(anchor.at))
				if elapsed > e.window {
					break
				}
				if !yield(ReplyPair{Trigger: *anchor.msg, Reply: *cand.msg, Elapsed: elapsed}) {
					return
				}
			}
		}
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
