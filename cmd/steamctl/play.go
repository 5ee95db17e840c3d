package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/ingenia-api/internal/media"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/progress"
	"github.com/noah-isme/ingenia-api/internal/seeds"
)

type playView struct {
	Activity string          `json:"activity"`
	Percent  int             `json:"percent"`
	Step     *progress.Step  `json:"step,omitempty"`
	Progress models.Progress `json:"progress"`
}

func (a *app) play(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: play <activity-id> <subcommand>")
	}
	id := args[0]
	if !strings.HasPrefix(id, seeds.Prefix) && a.activities == nil {
		return errors.New("only seed activities can be played offline")
	}
	act, err := a.exports.Resolve(ctx, id)
	if err != nil {
		return err
	}
	m, err := progress.Open(ctx, a.store, *act, a.logger)
	if err != nil {
		return err
	}

	var ev *progress.Event
	switch args[1] {
	case "show":
	case "next":
		ev = &progress.Event{Type: progress.Next}
	case "prev":
		ev = &progress.Event{Type: progress.Prev}
	case "done":
		ev = &progress.Event{Type: progress.MarkDone}
	case "reset":
		ev = &progress.Event{Type: progress.ResetAll}
	case "goto":
		if len(args) != 3 {
			return errors.New("usage: play <activity-id> goto <n>")
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("step number: %w", err)
		}
		ev = &progress.Event{Type: progress.GoTo, Index: n - 1}
	case "upload":
		if len(args) != 5 {
			return errors.New("usage: play <activity-id> upload <step-key> <kind> <file-or-url>")
		}
		item, err := a.playerUpload(ctx, m, args[2], models.MediaKind(args[3]), args[4])
		if err != nil {
			return err
		}
		ev = &progress.Event{Type: progress.AddUpload, Key: args[2], Item: item}
	default:
		return fmt.Errorf("unknown play subcommand %q", args[1])
	}

	if ev != nil {
		if _, err := m.Dispatch(ctx, *ev); err != nil {
			return err
		}
	}
	view := playView{Activity: act.Title, Percent: m.Percent(), Progress: m.State()}
	if step, ok := m.Current(); ok {
		view.Step = &step
	}
	return a.print(view)
}

// playerUpload stores a learner submission for one step, honoring the step's kinds and cap.
func (a *app) playerUpload(ctx context.Context, m *progress.Machine, key string, kind models.MediaKind, source string) (*models.MediaItem, error) {
	if !m.CanAddUpload(key, kind) {
		return nil, fmt.Errorf("step %q does not accept another %s", key, kind)
	}
	list := media.NewList(a.uploader(), nil)
	idx, err := list.Add(kind)
	if err != nil {
		return nil, err
	}
	if kind == models.MediaLink {
		if err := list.Update(idx, models.MediaItem{Kind: kind, URL: source}); err != nil {
			return nil, err
		}
	} else if err := a.uploadInto(ctx, list, idx, source); err != nil {
		return nil, err
	}
	item := list.Items()[idx]
	return &item, nil
}
