// Package agent runs the observe/act loop between a model and a browser
// session: the model sees the latest annotated screenshot, replies with one
// action, the session performs it, and the new snapshot goes back to the
// model until it answers in plain text.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/v0xg/pagepilot/internal/action"
	"github.com/v0xg/pagepilot/internal/ai"
	"github.com/v0xg/pagepilot/internal/annotator"
	"github.com/v0xg/pagepilot/internal/logger"
)

var (
	// ErrStepLimit is returned when a prompt used every step without an answer.
	ErrStepLimit = errors.New("step limit reached without an answer")
	// ErrTooManyFailures is returned when the model keeps issuing failing
	// actions after being told to stop.
	ErrTooManyFailures = errors.New("too many failed actions")
)

// Browser performs one action and returns the resulting snapshot.
type Browser interface {
	Do(ctx context.Context, a action.Action) (*annotator.Snapshot, error)
}

// Options bounds one prompt.
type Options struct {
	MaxSteps    int // model replies per prompt
	MaxFailures int // consecutive failed actions before the model must explain
}

// Result is the outcome of one prompt.
type Result struct {
	Answer string
	Steps  int
}

// Agent holds the conversation across prompts of one session.
type Agent struct {
	provider ai.Provider
	browser  Browser
	opts     Options
	log      *logger.Logger
	conv     *ai.Conversation
	last     *annotator.Snapshot

	// OnAction, when set, is called before each action is performed.
	OnAction func(a action.Action)
}

// New creates an agent with an empty conversation.
func New(provider ai.Provider, browser Browser, opts Options, log *logger.Logger) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 25
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 2
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Agent{
		provider: provider,
		browser:  browser,
		opts:     opts,
		log:      log,
		conv:     ai.NewConversation(),
	}
}

// Conversation exposes the transcript so far.
func (a *Agent) Conversation() *ai.Conversation {
	return a.conv
}

// Run hands prompt to the model and performs actions until it answers.
// Follow-up prompts continue the same conversation and see the page as the
// previous prompt left it.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	if a.last != nil {
		a.conv.AddUser(prompt+"\n\n"+ai.Observation(a.last, ""), image(a.last))
	} else {
		a.conv.AddUser(prompt, nil)
	}

	failures := 0
	for step := 1; step <= a.opts.MaxSteps; step++ {
		reply, err := a.provider.Complete(ctx, a.conv)
		if err != nil {
			return nil, err
		}
		a.conv.AddAssistant(reply)

		act, err := action.Parse(reply)
		if err != nil {
			if !action.Mentions(reply) {
				return &Result{Answer: reply, Steps: step}, nil
			}
			reason := err.Error()
			var malformed *action.MalformedError
			if errors.As(err, &malformed) {
				reason = malformed.Reason
			}
			a.log.Warn("malformed action: %s", reason)
			a.conv.AddUser(ai.MalformedReply(reason), nil)
			continue
		}

		if a.OnAction != nil {
			a.OnAction(act)
		}
		snap, err := a.browser.Do(ctx, act)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failures++
			a.log.Warn("%s failed (%d/%d): %v", act.Describe(), failures, a.opts.MaxFailures, err)
			if failures > a.opts.MaxFailures {
				return nil, fmt.Errorf("%w: last was %s: %v", ErrTooManyFailures, act.Describe(), err)
			}
			a.conv.AddUser(ai.FailedAction(string(act.Kind()), err, failures == a.opts.MaxFailures), nil)
			continue
		}

		failures = 0
		a.last = snap
		a.conv.AddUser(ai.Observation(snap, "Here is the page after "+act.Describe()+"."), image(snap))
	}
	return nil, ErrStepLimit
}

func image(snap *annotator.Snapshot) *ai.Image {
	if snap == nil || len(snap.Screenshot) == 0 {
		return nil
	}
	return &ai.Image{MediaType: snap.MediaType(), Data: snap.Screenshot}
}
