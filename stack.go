package sitestack

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
)

// logicalIDPattern matches valid CloudFormation logical IDs.
var logicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,255}$`)

// Entry is a resource registered on a stack.
type Entry struct {
	// ID is the logical ID (becomes the template resource key)
	ID       string
	Resource Resource
	// File and Line locate the Stack.Add call that registered the resource
	File string
	Line int

	DependsOn     []string
	RemovalPolicy RemovalPolicy
	Metadata      map[string]any
	Condition     string
}

// Option customizes a resource entry.
type Option func(*Entry)

// WithRemovalPolicy sets DeletionPolicy and UpdateReplacePolicy.
func WithRemovalPolicy(p RemovalPolicy) Option {
	return func(e *Entry) { e.RemovalPolicy = p }
}

// WithDependsOn adds explicit dependencies on other resources.
func WithDependsOn(resources ...Resource) Option {
	return func(e *Entry) {
		for _, r := range resources {
			e.DependsOn = append(e.DependsOn, r.LogicalID())
		}
	}
}

// WithMetadata attaches resource-level Metadata.
func WithMetadata(key string, value any) Option {
	return func(e *Entry) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithCondition attaches a template Condition name to the resource.
func WithCondition(name string) Option {
	return func(e *Entry) { e.Condition = name }
}

// Stack is an ordered set of resources, outputs and assets that is
// synthesized into one CloudFormation template.
//
// Registration problems (bad or duplicate IDs) are collected instead of
// panicking and reported by Err.
type Stack struct {
	Name        string
	Description string

	entries    []*Entry
	byID       map[string]*Entry
	outputs    map[string]Output
	assets     []Asset
	tags       map[string]string
	conditions map[string]any
	errs       []error
}

// NewStack creates an empty stack.
func NewStack(name, description string) *Stack {
	return &Stack{
		Name:        name,
		Description: description,
		byID:        make(map[string]*Entry),
		outputs:     make(map[string]Output),
		tags:        make(map[string]string),
		conditions:  make(map[string]any),
	}
}

// Add registers r under the logical ID id and returns r for chaining.
func (s *Stack) Add(id string, r Resource, opts ...Option) Resource {
	_, file, line, _ := runtime.Caller(1)

	if err := s.checkID(id); err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s (%s:%d): %w", id, file, line, err))
		return r
	}
	if r.LogicalID() != "" && r.LogicalID() != id {
		s.errs = append(s.errs, fmt.Errorf("%s (%s:%d): %w as %s", id, file, line, ErrAlreadyAdded, r.LogicalID()))
		return r
	}

	r.SetLogicalID(id)
	e := &Entry{ID: id, Resource: r, File: file, Line: line}
	for _, opt := range opts {
		opt(e)
	}

	s.entries = append(s.entries, e)
	s.byID[id] = e
	return r
}

// AddOutput registers a template output.
func (s *Stack) AddOutput(id string, o Output) {
	if err := s.checkID(id); err != nil {
		s.errs = append(s.errs, fmt.Errorf("output %s: %w", id, err))
		return
	}
	s.outputs[id] = o
}

// AddAsset registers a content asset.
func (s *Stack) AddAsset(a Asset) {
	for _, existing := range s.assets {
		if existing.ID == a.ID {
			s.errs = append(s.errs, fmt.Errorf("asset %s: %w", a.ID, ErrDuplicateID))
			return
		}
	}
	s.assets = append(s.assets, a)
}

// AddCondition declares a template condition usable with WithCondition.
func (s *Stack) AddCondition(name string, expr any) {
	if !logicalIDPattern.MatchString(name) {
		s.errs = append(s.errs, fmt.Errorf("condition %s: %w", name, ErrInvalidID))
		return
	}
	s.conditions[name] = expr
}

// Conditions returns the declared template conditions.
func (s *Stack) Conditions() map[string]any {
	return s.conditions
}

// Tag applies a tag to every taggable resource in the stack.
func (s *Stack) Tag(key, value string) {
	s.tags[key] = value
}

// Entries returns the registered resources in insertion order.
func (s *Stack) Entries() []*Entry {
	return s.entries
}

// Entry returns the entry for a logical ID.
func (s *Stack) Entry(id string) (*Entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Outputs returns the registered outputs.
func (s *Stack) Outputs() map[string]Output {
	return s.outputs
}

// Assets returns the registered assets.
func (s *Stack) Assets() []Asset {
	return s.assets
}

// SetAsset replaces the asset with the same ID. Used during synthesis to
// record staged hashes.
func (s *Stack) SetAsset(a Asset) {
	for i := range s.assets {
		if s.assets[i].ID == a.ID {
			s.assets[i] = a
			return
		}
	}
}

// Tags returns the stack-wide tags.
func (s *Stack) Tags() map[string]string {
	return s.tags
}

// Err returns every registration error joined, or nil.
func (s *Stack) Err() error {
	return errors.Join(s.errs...)
}

func (s *Stack) checkID(id string) error {
	if !logicalIDPattern.MatchString(id) {
		return ErrInvalidID
	}
	if _, exists := s.byID[id]; exists {
		return ErrDuplicateID
	}
	if _, exists := s.outputs[id]; exists {
		return ErrDuplicateID
	}
	return nil
}

// Errors reported by Stack.Err.
var (
	ErrInvalidID    = errors.New("logical ID must be 1-255 alphanumeric characters")
	ErrDuplicateID  = errors.New("duplicate logical ID")
	ErrAlreadyAdded = errors.New("resource already added")
)
