package schedulestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"madischedule-backend/internal/components/assert"
	"madischedule-backend/internal/schedule"
)

// FileName is the name of the document file for a rotation.
func FileName(r schedule.Rotation) string {
	return fmt.Sprintf("schedule_%s.json", r)
}

// Store keeps one json document per rotation inside a directory. Writes
// replace whole files through a rename so readers never see a half written
// document.
type Store struct {
	dir string
}

func New(dir string) Store {
	assert.NotEmptyStr(dir, "schedule directory")
	return Store{dir: dir}
}

func (s Store) Dir() string {
	return s.dir
}

func (s Store) Path(r schedule.Rotation) string {
	return filepath.Join(s.dir, FileName(r))
}

func encode(doc schedule.Document) ([]byte, error) {
	if doc == nil {
		doc = schedule.Document{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(doc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type staged struct {
	temp   string
	target string
}

func (s Store) stage(r schedule.Rotation, doc schedule.Document) (staged, error) {
	contents, err := encode(doc)
	if err != nil {
		return staged{}, fmt.Errorf("encode %s: %w", r, err)
	}

	f, err := os.CreateTemp(s.dir, fmt.Sprintf(".%s-*.tmp", FileName(r)))
	if err != nil {
		return staged{}, err
	}
	temp := f.Name()

	_, err = f.Write(contents)
	if err == nil {
		err = f.Chmod(0644)
	}
	if err == nil {
		err = f.Sync()
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(temp)
		return staged{}, fmt.Errorf("write %s: %w", r, err)
	}

	return staged{temp: temp, target: s.Path(r)}, nil
}

// Write replaces the document of a single rotation.
func (s Store) Write(r schedule.Rotation, doc schedule.Document) error {
	return s.WriteAll(map[schedule.Rotation]schedule.Document{r: doc})
}

// WriteAll replaces the documents of every rotation present in docs. All
// documents are encoded and staged before any of them is renamed into
// place, so a failure to encode one leaves every previous file untouched.
func (s Store) WriteAll(docs map[schedule.Rotation]schedule.Document) error {
	err := os.MkdirAll(s.dir, 0777)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	rotations := make([]schedule.Rotation, 0, len(docs))
	for r := range docs {
		rotations = append(rotations, r)
	}
	sort.Slice(rotations, func(i, j int) bool {
		return rotations[i] < rotations[j]
	})

	var files []staged
	cleanup := func() {
		for _, f := range files {
			os.Remove(f.temp)
		}
	}

	for _, r := range rotations {
		f, err := s.stage(r, docs[r])
		if err != nil {
			cleanup()
			return err
		}
		files = append(files, f)
	}

	for i, f := range files {
		err = os.Rename(f.temp, f.target)
		if err != nil {
			files = files[i:]
			cleanup()
			return fmt.Errorf("replace %s: %w", f.target, err)
		}
	}
	return nil
}

// Read loads the document of a rotation. A missing file is reported with an
// error satisfying errors.Is(err, os.ErrNotExist).
func (s Store) Read(r schedule.Rotation) (schedule.Document, error) {
	contents, err := os.ReadFile(s.Path(r))
	if err != nil {
		return nil, err
	}
	var doc schedule.Document
	err = json.Unmarshal(contents, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileName(r), err)
	}
	if doc == nil {
		doc = schedule.Document{}
	}
	return doc, nil
}

// Groups returns the sorted union of the groups in every rotation's
// document, missing documents count as empty.
func (s Store) Groups() ([]string, error) {
	seen := map[string]struct{}{}
	for _, r := range schedule.Rotations {
		doc, err := s.Read(r)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for group := range doc {
			seen[group] = struct{}{}
		}
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, nil
}

// Group returns one group's sessions in a rotation, ok is false when either
// the document or the group does not exist.
func (s Store) Group(r schedule.Rotation, group string) (sessions []schedule.Session, ok bool, err error) {
	doc, err := s.Read(r)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	sessions, ok = doc[group]
	return sessions, ok, nil
}
