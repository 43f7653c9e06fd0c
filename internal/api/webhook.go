package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/docreview/internal/review"
	"github.com/docreview/internal/webhookutils"
)

// Merge request actions that trigger a review.
var reviewedActions = map[string]bool{
	"open":   true,
	"reopen": true,
	"update": true,
}

// gitlabMergeRequestEvent is the subset of the GitLab webhook payload
// the server consumes.
type gitlabMergeRequestEvent struct {
	ObjectKind string `json:"object_kind"`
	Project    struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	ObjectAttributes struct {
		IID          int    `json:"iid"`
		Action       string `json:"action"`
		Title        string `json:"title"`
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
		LastCommit   struct {
			ID string `json:"id"`
		} `json:"last_commit"`
	} `json:"object_attributes"`
}

func (s *Server) handleGitLabWebhook(c echo.Context) error {
	if s.webhookSecret != "" {
		token := c.Request().Header.Get("X-Gitlab-Token")
		if !webhookutils.SecretsEqual(token, s.webhookSecret) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid webhook token"})
		}
	}

	var event gitlabMergeRequestEvent
	if err := c.Bind(&event); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	}

	if event.ObjectKind != "merge_request" {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored", "reason": "not a merge request event"})
	}
	if !reviewedActions[event.ObjectAttributes.Action] {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored", "reason": "action not reviewed"})
	}
	if event.Project.PathWithNamespace == "" || event.ObjectAttributes.IID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "payload missing project or merge request iid"})
	}

	req := review.Request{
		Project: event.Project.PathWithNamespace,
		MRIID:   event.ObjectAttributes.IID,
	}

	// Respond before the pipeline finishes; GitLab retries slow hooks.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()
		if _, err := s.reviewer.Run(ctx, req); err != nil {
			log.Error().Err(err).Str("project", req.Project).Int("mr_iid", req.MRIID).
				Msg("webhook-triggered review failed")
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}
