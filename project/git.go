package project

// This file contains Git integration utilities for retrieving
// information about the analyzed repository.

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/codesentry/codesentry/model"
)

// GitInfo returns the current commit and branch of the repository containing dir.
func GitInfo(ctx context.Context, dir string) (*model.Git, error) {
	commit, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}

	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}

	return &model.Git{Commit: commit, Branch: branch}, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
