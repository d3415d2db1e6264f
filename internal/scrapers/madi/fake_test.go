package madi

import (
	"context"
	"errors"
	"sync"
	"time"

	"madischedule-backend/pkg/htmlutil"
)

// fakeSite is an in-memory timetable site, tables maps a group label to the
// html returned once that group is selected.
type fakeSite struct {
	mutex      sync.Mutex
	options    []string
	tables     map[string]string
	openErr    error
	optionsErr error
	selectErr  map[string]error
	waitErr    map[string]error

	launched int
	closed   int
	selected []string
}

func (s *fakeSite) launcher(ctx context.Context) (Browser, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.launched++
	return &fakeBrowser{site: s}, nil
}

type fakeBrowser struct {
	site     *fakeSite
	opened   bool
	selected string
}

func (b *fakeBrowser) Open(ctx context.Context, url string) error {
	if b.site.openErr != nil {
		return b.site.openErr
	}
	b.opened = true
	return nil
}

func (b *fakeBrowser) Options(ctx context.Context) ([]htmlutil.Option, error) {
	if !b.opened {
		return nil, errors.New("page not opened")
	}
	if b.site.optionsErr != nil {
		return nil, b.site.optionsErr
	}
	options := make([]htmlutil.Option, len(b.site.options))
	for i, label := range b.site.options {
		options[i] = htmlutil.Option{Label: label, Value: label}
	}
	return options, nil
}

func (b *fakeBrowser) Select(ctx context.Context, group string) error {
	b.site.mutex.Lock()
	b.site.selected = append(b.site.selected, group)
	b.site.mutex.Unlock()

	if err := b.site.selectErr[group]; err != nil {
		return err
	}
	if _, ok := b.site.tables[group]; !ok {
		return ErrGroupNotFound
	}
	b.selected = group
	return nil
}

func (b *fakeBrowser) WaitTable(ctx context.Context, timeout time.Duration) (string, error) {
	if err := b.site.waitErr[b.selected]; err != nil {
		return "", err
	}
	if b.selected == "" {
		return "", ErrTableNotRendered
	}
	return b.site.tables[b.selected], nil
}

func (b *fakeBrowser) Close() error {
	b.site.mutex.Lock()
	defer b.site.mutex.Unlock()
	b.site.closed++
	return nil
}
