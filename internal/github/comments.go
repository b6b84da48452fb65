package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/microreview/internal/domain"
)

// Comment is one issue comment on a pull request.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// ListComments returns the issue comments on a pull request, oldest first.
func ListComments(ctx context.Context, prNumber string) ([]Comment, error) {
	endpoint := fmt.Sprintf("repos/{owner}/{repo}/issues/%s/comments?per_page=100", prNumber)
	cmd := exec.CommandContext(ctx, "gh", "api", endpoint)
	out, err := cmd.Output()
	if err != nil {
		return nil, classifyGHError(err)
	}
	return parseComments(out)
}

// parseComments parses the REST comment list response.
func parseComments(data []byte) ([]Comment, error) {
	var comments []Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("failed to parse comment list: %w", err)
	}
	return comments, nil
}

// FindMarkedComment returns the ID of the first comment whose body starts
// with marker, or an empty string when none matches. Matching on the body
// prefix keeps ordinary comments that merely quote the review out of scope.
func FindMarkedComment(comments []Comment, marker string) string {
	for _, c := range comments {
		if strings.HasPrefix(c.Body, marker) {
			return strconv.FormatInt(c.ID, 10)
		}
	}
	return ""
}

// FindReviewComment looks up a previously posted review comment on the PR by
// its marker line. Returns an empty string when the PR has none.
func FindReviewComment(ctx context.Context, prNumber, marker string) (string, error) {
	comments, err := ListComments(ctx, prNumber)
	if err != nil {
		return "", err
	}
	return FindMarkedComment(comments, marker), nil
}

// CreateComment posts a new comment on the pull request.
func CreateComment(ctx context.Context, prNumber, body string) error {
	cmd := exec.CommandContext(ctx, "gh", "pr", "comment", prNumber, "--body-file", "-")
	cmd.Stdin = strings.NewReader(body)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return fmt.Errorf("failed to create comment (%s): %w", errMsg, err)
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// UpdateComment edits an existing issue comment in place.
func UpdateComment(ctx context.Context, commentID, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("failed to encode comment body: %w", err)
	}

	endpoint := fmt.Sprintf("repos/{owner}/{repo}/issues/comments/%s", commentID)
	cmd := exec.CommandContext(ctx, "gh", "api", "--method", "PATCH", endpoint, "--input", "-")
	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return fmt.Errorf("failed to update comment %s (%s): %w", commentID, errMsg, err)
		}
		return fmt.Errorf("failed to update comment %s: %w", commentID, err)
	}
	return nil
}

// Post executes a reconciler decision against the pull request. A skip
// decision is a no-op.
func Post(ctx context.Context, prNumber string, decision domain.CommentDecision) error {
	switch decision.Action {
	case domain.ActionCreate:
		return CreateComment(ctx, prNumber, decision.Body)
	case domain.ActionUpdate:
		return UpdateComment(ctx, decision.TargetCommentID, decision.Body)
	default:
		return nil
	}
}
