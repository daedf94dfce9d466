package deploy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned when the operator interrupts a prompt. It is a
// termination path, not a resolver failure; the CLI exits non-zero with a
// cancellation notice instead of an error log.
var ErrCancelled = errors.New("cancelled by user")

// Prompter abstracts the interactive selection surface so the resolver can
// be driven by a scripted fake in tests. Optional selections return an
// empty string for "none" rather than leaking a sentinel label into the
// resolved configuration.
type Prompter interface {
	// Select blocks for one choice among options.
	Select(title string, options []string) (string, error)
	// SelectOptional adds a none choice; it returns "" when taken.
	SelectOptional(title string, options []string) (string, error)
	// SelectOrUpload adds an upload-new-key choice; upload is true when taken.
	SelectOrUpload(title string, options []string) (choice string, upload bool, err error)
	// Input returns one trimmed line, possibly empty.
	Input(title string) (string, error)
	// RequiredInput re-prompts until the line is non-empty.
	RequiredInput(title string) (string, error)
	// Int re-prompts on non-numeric or below-minimum entries; an empty
	// entry yields def.
	Int(title string, def, min int) (int, error)
}

// TerminalPrompter renders prompts with huh forms on the controlling
// terminal.
type TerminalPrompter struct{}

const (
	noneLabel   = "None"
	uploadLabel = "Upload new SSH key"
)

func runField(f huh.Field) error {
	err := huh.NewForm(huh.NewGroup(f)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}

func (TerminalPrompter) Select(title string, options []string) (string, error) {
	idx, err := selectIndex(title, options, nil)
	if err != nil || idx < 0 {
		return "", err
	}
	return options[idx], nil
}

func (TerminalPrompter) SelectOptional(title string, options []string) (string, error) {
	extra := huh.NewOption(noneLabel, -1)
	idx, err := selectIndex(title, options, &indexOption{opt: extra, first: true})
	if err != nil || idx < 0 {
		return "", err
	}
	return options[idx], nil
}

func (TerminalPrompter) SelectOrUpload(title string, options []string) (string, bool, error) {
	extra := huh.NewOption(uploadLabel, -1)
	idx, err := selectIndex(title, options, &indexOption{opt: extra})
	if err != nil {
		return "", false, err
	}
	if idx < 0 {
		return "", true, nil
	}
	return options[idx], false, nil
}

type indexOption struct {
	opt   huh.Option[int]
	first bool
}

// selectIndex runs a select over option indexes; sentinel entries carry a
// negative index so option labels can never collide with resource names.
func selectIndex(title string, options []string, extra *indexOption) (int, error) {
	opts := make([]huh.Option[int], 0, len(options)+1)
	if extra != nil && extra.first {
		opts = append(opts, extra.opt)
	}
	for i, o := range options {
		opts = append(opts, huh.NewOption(o, i))
	}
	if extra != nil && !extra.first {
		opts = append(opts, extra.opt)
	}
	var idx int
	if err := runField(huh.NewSelect[int]().Title(title).Options(opts...).Value(&idx)); err != nil {
		return 0, err
	}
	return idx, nil
}

func (TerminalPrompter) Input(title string) (string, error) {
	var v string
	if err := runField(huh.NewInput().Title(title).Value(&v)); err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (TerminalPrompter) RequiredInput(title string) (string, error) {
	var v string
	validate := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("a value is required")
		}
		return nil
	}
	if err := runField(huh.NewInput().Title(title).Validate(validate).Value(&v)); err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (TerminalPrompter) Int(title string, def, min int) (int, error) {
	var raw string
	validate := func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("please enter a valid number")
		}
		if n < min {
			return fmt.Errorf("must be at least %d", min)
		}
		return nil
	}
	field := huh.NewInput().Title(title).Placeholder(strconv.Itoa(def)).Validate(validate).Value(&raw)
	if err := runField(field); err != nil {
		return 0, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
