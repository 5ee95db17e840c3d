package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/noah-isme/ingenia-api/internal/draft"
	"github.com/noah-isme/ingenia-api/internal/media"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/service"
)

func (a *app) draftMachine(ctx context.Context) (*draft.Machine, error) {
	var gateway draft.Gateway
	if actor := a.sessions.Snapshot().Actor(); a.activities != nil && actor.Authenticated() {
		gateway = a.activities.For(actor)
	}
	return draft.Load(ctx, a.store, gateway, a.logger)
}

func (a *app) draft(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("draft needs a subcommand")
	}
	m, err := a.draftMachine(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "show":
		return a.print(m.State())
	case "set":
		if len(args) < 3 {
			return errors.New("usage: draft set <field> <value>")
		}
		ev, err := fieldEvent(args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		state, err := m.Dispatch(ctx, ev)
		if err != nil {
			return err
		}
		return a.print(state.Activity)
	case "section":
		if len(args) < 4 {
			return errors.New("usage: draft section <index> <field> <value>")
		}
		ev, err := sectionEvent(args[1], args[2], strings.Join(args[3:], " "))
		if err != nil {
			return err
		}
		state, err := m.Dispatch(ctx, ev)
		if err != nil {
			return err
		}
		return a.print(state.Activity.Sections)
	case "attach":
		if len(args) != 4 {
			return errors.New("usage: draft attach <index|materials> <kind> <file-or-url>")
		}
		return a.attach(ctx, m, args[1], models.MediaKind(args[2]), args[3])
	case "save":
		id, err := m.SaveRemote(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "saved", id)
		return nil
	case "publish":
		id, err := m.Publish(ctx)
		if err != nil {
			return err
		}
		vis, _ := draft.PublishTarget(m.State().Activity)
		fmt.Fprintln(a.out, "published", id, "as", vis)
		return nil
	case "reset":
		state, err := m.Reset(ctx)
		if err != nil {
			return err
		}
		return a.print(state)
	case "export":
		return a.exportDraft(m, args[1:])
	case "import":
		if len(args) != 2 {
			return errors.New("usage: draft import <path>")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		state, err := m.Import(ctx, data)
		if err != nil {
			return err
		}
		return a.print(state.Activity)
	}
	return fmt.Errorf("unknown draft subcommand %q", args[0])
}

func fieldEvent(field, value string) (draft.Event, error) {
	switch field {
	case "title":
		return draft.Event{Type: draft.SetTitle, Text: value}, nil
	case "objective":
		return draft.Event{Type: draft.SetObjective, Text: value}, nil
	case "materials":
		return draft.Event{Type: draft.SetMaterials, List: splitList(value)}, nil
	case "tags":
		return draft.Event{Type: draft.SetTags, List: splitList(value)}, nil
	case "grades":
		return draft.Event{Type: draft.SetGrades, List: splitList(value)}, nil
	case "subjects":
		return draft.Event{Type: draft.SetSubjects, List: splitList(value)}, nil
	case "visibility":
		return draft.Event{Type: draft.SetVisibility, Text: value}, nil
	case "audience":
		return draft.Event{Type: draft.SetAudience, Text: value}, nil
	case "status":
		return draft.Event{Type: draft.SetListingStatus, Text: value}, nil
	case "minutes":
		if value == "" || value == "-" {
			return draft.Event{Type: draft.SetEstMinutes}, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return draft.Event{}, fmt.Errorf("minutes: %w", err)
		}
		return draft.Event{Type: draft.SetEstMinutes, Number: &n}, nil
	case "price":
		if value == "" || value == "-" {
			return draft.Event{Type: draft.SetPrice}, nil
		}
		p, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return draft.Event{}, fmt.Errorf("price: %w", err)
		}
		return draft.Event{Type: draft.SetPrice, Price: &p}, nil
	}
	return draft.Event{}, fmt.Errorf("unknown field %q", field)
}

func sectionEvent(index, field, value string) (draft.Event, error) {
	i, err := strconv.Atoi(index)
	if err != nil {
		return draft.Event{}, fmt.Errorf("section index: %w", err)
	}
	patch := draft.SectionPatch{}
	switch field {
	case "name":
		patch.Name = &value
	case "text":
		patch.Text = &value
	case "uploads":
		allow, err := strconv.ParseBool(value)
		if err != nil {
			return draft.Event{}, fmt.Errorf("uploads: %w", err)
		}
		patch.AllowUploads = &allow
	case "kinds":
		kinds := models.MediaKinds{}
		for _, k := range splitList(value) {
			kinds = append(kinds, models.MediaKind(k))
		}
		patch.UploadKinds = &kinds
	case "max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return draft.Event{}, fmt.Errorf("max: %w", err)
		}
		patch.MaxUploads = &n
	default:
		return draft.Event{}, fmt.Errorf("unknown section field %q", field)
	}
	return draft.Event{Type: draft.UpdateSection, Index: i, Section: &patch}, nil
}

// attach appends one media item to a section or to the materials. Files are uploaded first; the
// draft only changes when the upload succeeded.
func (a *app) attach(ctx context.Context, m *draft.Machine, target string, kind models.MediaKind, source string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown media kind %q", kind)
	}
	act := m.State().Activity
	var current models.MediaList
	sectionIndex := -1
	if target == "materials" {
		current = act.MaterialsMedia
	} else {
		i, err := strconv.Atoi(target)
		if err != nil || i < 0 || i >= len(act.Sections) {
			return fmt.Errorf("section %q out of range", target)
		}
		sectionIndex = i
		current = act.Sections[i].Media
	}

	list := media.NewList(a.uploader(), current)
	idx, err := list.Add(kind)
	if err != nil {
		return err
	}
	if kind == models.MediaLink {
		if err := list.Update(idx, models.MediaItem{Kind: kind, URL: source}); err != nil {
			return err
		}
	} else if err := a.uploadInto(ctx, list, idx, source); err != nil {
		return err
	}

	items := list.Items()
	ev := draft.Event{Type: draft.SetMaterialsMedia, Media: items}
	if sectionIndex >= 0 {
		ev = draft.Event{Type: draft.UpdateSection, Index: sectionIndex, Section: &draft.SectionPatch{Media: &items}}
	}
	state, err := m.Dispatch(ctx, ev)
	if err != nil {
		return err
	}
	if sectionIndex >= 0 {
		return a.print(state.Activity.Sections[sectionIndex].Media)
	}
	return a.print(state.Activity.MaterialsMedia)
}

func (a *app) uploader() media.Uploader {
	actor := a.sessions.Snapshot().Actor()
	if a.media == nil || !actor.Authenticated() {
		return nil
	}
	return a.media.UploaderFor(actor)
}

func (a *app) uploadInto(ctx context.Context, list *media.List, idx int, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return list.UploadAt(ctx, idx, filepath.Base(path), f)
}

func (a *app) exportDraft(m *draft.Machine, args []string) error {
	fs := flag.NewFlagSet("draft export", flag.ContinueOnError)
	pdf := fs.Bool("pdf", false, "render a printable worksheet instead of JSON")
	out := fs.String("o", "", "output path (defaults to the activity title)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	act := m.State().Activity
	var (
		res *service.ExportResult
		err error
	)
	if *pdf {
		res, err = a.exports.RenderPDF(act)
	} else {
		res, err = service.RenderJSON(act)
	}
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = res.Filename
	}
	if err := os.WriteFile(path, res.Payload, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "wrote", path)
	return nil
}

func splitList(value string) []string {
	return strings.Split(value, ",")
}
