package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoArg(t *testing.T) {
	testCases := []struct {
		name          string
		arg           string
		expectedOwner string
		expectedRepo  string
		wantErr       bool
	}{
		{
			name:          "plain owner/repo",
			arg:           "octocat/hello",
			expectedOwner: "octocat",
			expectedRepo:  "hello",
		},
		{
			name:          "https URL",
			arg:           "https://github.com/octocat/hello",
			expectedOwner: "octocat",
			expectedRepo:  "hello",
		},
		{
			name:          "URL with trailing slash",
			arg:           "https://github.com/octocat/hello/",
			expectedOwner: "octocat",
			expectedRepo:  "hello",
		},
		{
			name:          "clone URL with .git suffix",
			arg:           "https://github.com/octocat/hello.git",
			expectedOwner: "octocat",
			expectedRepo:  "hello",
		},
		{
			name:          "bare host prefix",
			arg:           "github.com/octocat/hello",
			expectedOwner: "octocat",
			expectedRepo:  "hello",
		},
		{
			name:    "missing repo",
			arg:     "octocat",
			wantErr: true,
		},
		{
			name:    "empty owner",
			arg:     "/hello",
			wantErr: true,
		},
		{
			name:    "URL on another host",
			arg:     "https://gitlab.com/octocat/hello",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := parseRepoArg(tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOwner, owner)
			assert.Equal(t, tc.expectedRepo, repo)
		})
	}
}
