package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// #region errors

// PersistenceError reports a failed example or rule file operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("memory persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// #endregion errors

// #region files

// exampleFile is the structured sibling of the concatenated examples
// text: it keeps the ordered list and the running index so a later
// session resumes numbering where this one stopped.
type exampleFile struct {
	Index    int      `json:"index"`
	Examples []string `json:"examples"`
}

func (s *Store) examplesTxtPath() string  { return filepath.Join(s.cfg.Dir, "examples.txt") }
func (s *Store) examplesJSONPath() string { return filepath.Join(s.cfg.Dir, "examples.json") }
func (s *Store) rulesTxtPath() string     { return filepath.Join(s.cfg.Dir, "rules.txt") }
func (s *Store) rulesJSONPath() string    { return filepath.Join(s.cfg.Dir, "rules.json") }

// load restores a previous session's memory according to the inherit
// policy. A missing directory or examples file means a fresh start.
func (s *Store) load() error {
	if s.cfg.Dir == "" {
		return nil
	}
	txt, err := os.ReadFile(s.examplesTxtPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &PersistenceError{Op: "read examples", Err: err}
	}

	var doc exampleFile
	docData, docErr := os.ReadFile(s.examplesJSONPath())
	if docErr == nil {
		if err := json.Unmarshal(docData, &doc); err != nil {
			return &PersistenceError{Op: "parse examples", Err: err}
		}
	}

	if !s.cfg.InheritRules {
		if docErr != nil {
			return &PersistenceError{Op: "read examples", Err: docErr}
		}
		s.examples = doc.Examples
		s.examplesPrompt = string(txt)
		s.exampleIndex = doc.Index
		return nil
	}

	// Inherit policy: rules carry over; examples only feed the prompt
	// when subsampling is on.
	if s.cfg.SampleAllExamples > 0 {
		if docErr != nil {
			return &PersistenceError{Op: "read examples", Err: docErr}
		}
		s.examples = doc.Examples
		s.examplesPrompt = strings.Join(s.sampleLocked(s.cfg.SampleAllExamples), "")
	}
	s.exampleIndex = doc.Index

	rulesTxt, err := os.ReadFile(s.rulesTxtPath())
	if err != nil {
		return &PersistenceError{Op: "read rules", Err: err}
	}
	rulesData, err := os.ReadFile(s.rulesJSONPath())
	if err != nil {
		return &PersistenceError{Op: "read rules", Err: err}
	}
	if err := json.Unmarshal(rulesData, &s.inheritedRuleList); err != nil {
		return &PersistenceError{Op: "parse rules", Err: err}
	}
	s.inheritedRules = string(rulesTxt)
	s.rules = s.inheritedRules
	if s.cfg.AllRules {
		s.ruleList = append([]string{}, s.inheritedRuleList...)
	}
	return nil
}

// Save writes the example and rule file pairs. Under the
// inherit-without-subsample policy this session's examples are
// appended to the existing text instead of rewriting it.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return &PersistenceError{Op: "create dir", Err: err}
	}

	appendMode := s.cfg.InheritRules && s.cfg.SampleAllExamples == 0
	if appendMode {
		f, err := os.OpenFile(s.examplesTxtPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return &PersistenceError{Op: "append examples", Err: err}
		}
		_, werr := f.WriteString(strings.Join(s.examples, ""))
		cerr := f.Close()
		if werr != nil {
			return &PersistenceError{Op: "append examples", Err: werr}
		}
		if cerr != nil {
			return &PersistenceError{Op: "append examples", Err: cerr}
		}
	} else if err := os.WriteFile(s.examplesTxtPath(), []byte(s.examplesPrompt), 0o644); err != nil {
		return &PersistenceError{Op: "write examples", Err: err}
	}

	doc, err := json.MarshalIndent(exampleFile{Index: s.exampleIndex, Examples: s.examples}, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode examples", Err: err}
	}
	if err := os.WriteFile(s.examplesJSONPath(), doc, 0o644); err != nil {
		return &PersistenceError{Op: "write examples", Err: err}
	}

	if len(s.rules) == 0 {
		return nil
	}
	if err := os.WriteFile(s.rulesTxtPath(), []byte(s.rules), 0o644); err != nil {
		return &PersistenceError{Op: "write rules", Err: err}
	}
	list := s.ruleList
	if len(list) == 0 {
		list = ParseRules(s.rules)
	}
	listData, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode rules", Err: err}
	}
	if err := os.WriteFile(s.rulesJSONPath(), listData, 0o644); err != nil {
		return &PersistenceError{Op: "write rules", Err: err}
	}
	return nil
}

// #endregion files
