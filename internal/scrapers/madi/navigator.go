package madi

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type navigatorState int

const (
	stateIdle navigatorState = iota
	statePageLoaded
	stateListed
	stateSelected
	stateRendered
)

func (s navigatorState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePageLoaded:
		return "page-loaded"
	case stateListed:
		return "listed"
	case stateSelected:
		return "selected"
	case stateRendered:
		return "rendered"
	}
	return fmt.Sprintf("navigatorState(%d)", int(s))
}

var errNavigatorState = errors.New("navigator called out of order")

// navigator drives a Browser through the page: load once, list the groups
// once, then render groups one after another.
type navigator struct {
	browser Browser
	opts    Options
	state   navigatorState
}

func newNavigator(browser Browser, opts Options) *navigator {
	return &navigator{
		browser: browser,
		opts:    opts,
	}
}

func (n *navigator) expect(states ...navigatorState) error {
	for _, s := range states {
		if n.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: in state %s", errNavigatorState, n.state)
}

func (n *navigator) Load(ctx context.Context) error {
	err := n.expect(stateIdle)
	if err != nil {
		return err
	}
	err = n.browser.Open(ctx, n.opts.Url)
	if err != nil {
		return fmt.Errorf("open %s: %w", n.opts.Url, err)
	}
	n.state = statePageLoaded
	return nil
}

// Groups returns the labels of the selectable groups in page order, the
// placeholder option and blank labels are left out.
func (n *navigator) Groups(ctx context.Context) ([]string, error) {
	err := n.expect(statePageLoaded)
	if err != nil {
		return nil, err
	}
	options, err := n.browser.Options(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	groups := []string{}
	for _, o := range options {
		label := strings.TrimSpace(o.Label)
		if label == "" || label == n.opts.Placeholder {
			continue
		}
		groups = append(groups, label)
	}
	n.state = stateListed
	return groups, nil
}

// Render selects a group and returns the html of its timetable. A failure
// leaves the navigator ready for the next group.
func (n *navigator) Render(ctx context.Context, group string) (string, error) {
	err := n.expect(stateListed, stateRendered)
	if err != nil {
		return "", err
	}
	n.state = stateListed

	err = n.browser.Select(ctx, group)
	if err != nil {
		return "", fmt.Errorf("select %q: %w", group, err)
	}
	n.state = stateSelected

	err = sleep(ctx, n.opts.SettleDelay)
	if err != nil {
		n.state = stateListed
		return "", err
	}
	html, err := n.browser.WaitTable(ctx, n.opts.SelectTimeout)
	if err != nil {
		n.state = stateListed
		return "", fmt.Errorf("wait for %q: %w", group, err)
	}
	n.state = stateRendered
	return html, nil
}
