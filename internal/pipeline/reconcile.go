package pipeline

import "github.com/microreview/internal/domain"

// Reconcile decides what the posting layer should do with the synthesized
// review. priorCommentID is the identifier of a previously posted
// MicroReview comment on the PR, empty when none exists; it is supplied by
// the caller, never looked up here.
//
// Update mode keeps the PR at exactly one review comment: an existing
// comment is edited in place, and when a run comes back clean the comment
// is rewritten with the no-findings body rather than left stale. Append
// mode posts a fresh comment on every run with findings and stays silent on
// clean runs.
func Reconcile(review domain.SynthesizedReview, priorCommentID string, mode domain.CommentMode) domain.CommentDecision {
	if mode == domain.CommentModeAppend {
		if review.IsEmpty {
			return domain.CommentDecision{Action: domain.ActionSkip}
		}
		return domain.CommentDecision{Action: domain.ActionCreate, Body: review.Body}
	}

	// Update mode, also the fallback for an unrecognized mode value.
	if review.IsEmpty {
		if priorCommentID == "" {
			return domain.CommentDecision{Action: domain.ActionSkip}
		}
		return domain.CommentDecision{
			Action:          domain.ActionUpdate,
			TargetCommentID: priorCommentID,
			Body:            review.Body,
		}
	}
	if priorCommentID != "" {
		return domain.CommentDecision{
			Action:          domain.ActionUpdate,
			TargetCommentID: priorCommentID,
			Body:            review.Body,
		}
	}
	return domain.CommentDecision{Action: domain.ActionCreate, Body: review.Body}
}
