package sitestack

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResource struct {
	Logical `json:"-"`
	Name    string
}

func (testResource) ResourceType() string { return "Test::Resource" }

func TestStack_Add(t *testing.T) {
	stack := NewStack("WebsiteStack", "test")
	a := &testResource{Name: "a"}
	b := &testResource{Name: "b"}

	stack.Add("First", a)
	stack.Add("Second", b, WithDependsOn(a), WithRemovalPolicy(Retain), WithMetadata("k", "v"), WithCondition("IsProd"))

	require.NoError(t, stack.Err())
	assert.Equal(t, "First", a.LogicalID())
	assert.Equal(t, "Second", b.LogicalID())

	entries := stack.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].ID)
	assert.Equal(t, "Second", entries[1].ID)

	second, ok := stack.Entry("Second")
	require.True(t, ok)
	assert.Equal(t, []string{"First"}, second.DependsOn)
	assert.Equal(t, Retain, second.RemovalPolicy)
	assert.Equal(t, map[string]any{"k": "v"}, second.Metadata)
	assert.Equal(t, "IsProd", second.Condition)
}

func TestStack_AddRecordsCaller(t *testing.T) {
	stack := NewStack("WebsiteStack", "")
	stack.Add("Thing", &testResource{})

	e, ok := stack.Entry("Thing")
	require.True(t, ok)
	assert.Equal(t, "stack_test.go", filepath.Base(e.File))
	assert.Greater(t, e.Line, 0)
}

func TestStack_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(s *Stack)
		wantErr error
	}{
		{
			name:    "empty id",
			build:   func(s *Stack) { s.Add("", &testResource{}) },
			wantErr: ErrInvalidID,
		},
		{
			name:    "non alphanumeric id",
			build:   func(s *Stack) { s.Add("Website-Bucket", &testResource{}) },
			wantErr: ErrInvalidID,
		},
		{
			name: "duplicate id",
			build: func(s *Stack) {
				s.Add("Bucket", &testResource{})
				s.Add("Bucket", &testResource{})
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "output collides with resource",
			build: func(s *Stack) {
				s.Add("Bucket", &testResource{})
				s.AddOutput("Bucket", Output{Value: "x"})
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "resource added twice",
			build: func(s *Stack) {
				r := &testResource{}
				s.Add("One", r)
				s.Add("Two", r)
			},
			wantErr: ErrAlreadyAdded,
		},
		{
			name: "duplicate asset",
			build: func(s *Stack) {
				s.AddAsset(Asset{ID: "Site"})
				s.AddAsset(Asset{ID: "Site"})
			},
			wantErr: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := NewStack("WebsiteStack", "")
			tt.build(stack)
			assert.ErrorIs(t, stack.Err(), tt.wantErr)
		})
	}
}

func TestStack_OutputsAssetsTags(t *testing.T) {
	stack := NewStack("WebsiteStack", "")
	stack.AddOutput("Url", Output{Value: "x"})
	stack.AddAsset(Asset{ID: "Site", Path: "site"})
	stack.Tag("project", "site")
	stack.AddCondition("IsProd", map[string]any{"Fn::Equals": []any{"a", "a"}})
	stack.AddCondition("bad-name", true)

	assert.Contains(t, stack.Outputs(), "Url")
	assert.Contains(t, stack.Conditions(), "IsProd")
	assert.NotContains(t, stack.Conditions(), "bad-name")
	assert.ErrorIs(t, stack.Err(), ErrInvalidID)
	assert.Equal(t, map[string]string{"project": "site"}, stack.Tags())

	stack.SetAsset(Asset{ID: "Site", Path: "site", Hash: "abc"})
	require.Len(t, stack.Assets(), 1)
	assert.Equal(t, "abc", stack.Assets()[0].Hash)

	stack.SetAsset(Asset{ID: "Other"})
	assert.Len(t, stack.Assets(), 1)
}
