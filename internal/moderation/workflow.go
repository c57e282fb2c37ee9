// Package moderation implements the report workflow: end users report a
// message, admins act on the report. Which admin actions are valid is a
// pure function of the report's state, never re-derived from scattered
// flags at render time.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/api"
	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// AdminAction is one of the operations an admin can perform on a report.
type AdminAction string

const (
	// ActionResolve closes the report without touching the message.
	ActionResolve AdminAction = "resolve"
	// ActionDeleteMessage removes the reported message; its body is
	// replaced by the moderation placeholder everywhere.
	ActionDeleteMessage AdminAction = "delete-message"
	// ActionDeleteClient marks the offending account deleted.
	ActionDeleteClient AdminAction = "delete-client"
	// ActionRetire hides the report from this admin's listing. Local
	// only, the backend never sees it.
	ActionRetire AdminAction = "retire"
)

// Backend wire values for destructive actions.
const (
	wireStateResolved   = "resuelto"
	wireActionDeleteMsg = "eliminar_mensaje"
	wireActionDeleteCli = "eliminar_cliente"
)

var (
	ErrEmptyReason       = errors.New("report reason must not be empty")
	ErrNoConversation    = errors.New("report requires a conversation id")
	ErrActionUnavailable = errors.New("action not available for this report")
	ErrReportUnknown     = errors.New("report not found")
)

// AvailableActions returns the admin actions valid for the report's
// current state.
//
// A pending report (open or in review) offers the full destructive set,
// even when the reported message is already deleted; pending status takes
// precedence. Delete Client is only shown while the account is still
// active. A settled report (resolved or rejected) offers nothing but
// Retire.
func AvailableActions(r models.Report) []AdminAction {
	if !r.State.Pending() {
		return []AdminAction{ActionRetire}
	}
	actions := []AdminAction{ActionResolve, ActionDeleteMessage}
	if !r.ClientDeleted {
		actions = append(actions, ActionDeleteClient)
	}
	return append(actions, ActionRetire)
}

func actionAvailable(r models.Report, action AdminAction) bool {
	for _, a := range AvailableActions(r) {
		if a == action {
			return true
		}
	}
	return false
}

// Backend is the slice of the REST client the workflow needs.
type Backend interface {
	CreateReport(ctx context.Context, conversationID, messageID, reason string) (models.Report, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	ReportDetail(ctx context.Context, reportID string) (models.Report, error)
	UpdateReport(ctx context.Context, reportID string, update api.ReportUpdate) error
}

// HiddenSet is the per-admin-session set of retired report ids.
type HiddenSet interface {
	HideReport(reportID string)
	ReportHidden(reportID string) bool
	ClearHiddenReports()
}

// MessageCache receives the deleted-message transition so a stale local
// copy can never show the original body. Optional.
type MessageCache interface {
	MarkDeleted(ctx context.Context, conversationID, messageID string) error
}

// Workflow drives reports end to end: creation by the reporting user,
// admin actions, and the local visibility filter.
type Workflow struct {
	backend Backend
	hidden  HiddenSet
	cache   MessageCache
	logger  zerolog.Logger
}

func New(backend Backend, hidden HiddenSet, cache MessageCache) *Workflow {
	return &Workflow{
		backend: backend,
		hidden:  hidden,
		cache:   cache,
		logger:  logging.Component("moderation"),
	}
}

// Report files a complaint against a message. The reason and conversation
// id are validated before any network call; the reporting user's view of
// the message does not change on success.
func (w *Workflow) Report(ctx context.Context, conversationID, messageID, reason string) (models.Report, error) {
	if strings.TrimSpace(conversationID) == "" {
		return models.Report{}, ErrNoConversation
	}
	if strings.TrimSpace(reason) == "" {
		return models.Report{}, ErrEmptyReason
	}

	report, err := w.backend.CreateReport(ctx, conversationID, messageID, reason)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to create report: %w", err)
	}
	w.logger.Info().
		Str("report_id", report.ID).
		Str("conversation_id", conversationID).
		Msg("report created")
	return report, nil
}

// Visible returns the reports list with locally retired entries removed.
func (w *Workflow) Visible(ctx context.Context) ([]models.Report, error) {
	reports, err := w.backend.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	if w.hidden == nil {
		return reports, nil
	}
	visible := reports[:0]
	for _, r := range reports {
		if !w.hidden.ReportHidden(r.ID) {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// Detail fetches a single report.
func (w *Workflow) Detail(ctx context.Context, reportID string) (models.Report, error) {
	return w.backend.ReportDetail(ctx, reportID)
}

// Apply performs an admin action on a report. The report's current state
// is fetched first and the action gated against it; an action the state
// machine does not offer fails with ErrActionUnavailable. The returned
// report reflects the post-action state.
func (w *Workflow) Apply(ctx context.Context, reportID string, action AdminAction, comment string) (models.Report, error) {
	report, err := w.backend.ReportDetail(ctx, reportID)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to fetch report: %w", err)
	}
	if !actionAvailable(report, action) {
		return report, fmt.Errorf("%w: %s on report %s (state %s)", ErrActionUnavailable, action, reportID, report.State)
	}

	log := w.logger.With().Str("report_id", reportID).Str("action", string(action)).Logger()

	switch action {
	case ActionRetire:
		if w.hidden != nil {
			w.hidden.HideReport(reportID)
		}
		log.Info().Msg("report retired from view")
		return report, nil

	case ActionResolve:
		err = w.backend.UpdateReport(ctx, reportID, api.ReportUpdate{
			State:        wireStateResolved,
			AdminComment: comment,
		})
		if err != nil {
			return report, fmt.Errorf("failed to resolve report: %w", err)
		}
		report.State = models.ReportStateResolved
		report.AdminComment = comment

	case ActionDeleteMessage:
		err = w.backend.UpdateReport(ctx, reportID, api.ReportUpdate{
			Action:       wireActionDeleteMsg,
			AdminComment: comment,
		})
		if err != nil {
			return report, fmt.Errorf("failed to delete message: %w", err)
		}
		report.MessageDeleted = true
		if w.cache != nil && report.ConversationID != "" && report.ReportedMessageID != "" {
			if cerr := w.cache.MarkDeleted(ctx, report.ConversationID, report.ReportedMessageID); cerr != nil {
				log.Warn().Err(cerr).Msg("failed to propagate deletion to local cache")
			}
		}

	case ActionDeleteClient:
		// The local flag flips even when the backend call fails; the
		// account deletion is best effort, the flag is authoritative for
		// this session's action gating.
		if err := w.backend.UpdateReport(ctx, reportID, api.ReportUpdate{
			Action:       wireActionDeleteCli,
			AdminComment: comment,
		}); err != nil {
			log.Warn().Err(err).Msg("client deletion call failed, keeping local flag")
			report.ClientDeleted = true
			return report, nil
		}
		report.ClientDeleted = true

	default:
		return report, fmt.Errorf("%w: %s", ErrActionUnavailable, action)
	}

	log.Info().Msg("admin action applied")

	// Re-fetch so the caller sees the backend's view of the transition.
	// A failed refresh falls back to the locally advanced copy.
	refreshed, rerr := w.backend.ReportDetail(ctx, reportID)
	if rerr != nil {
		log.Debug().Err(rerr).Msg("detail refresh after action failed")
		return report, nil
	}
	return refreshed, nil
}

// Unretire clears the local hidden set so every retired report shows
// again.
func (w *Workflow) Unretire() {
	if w.hidden != nil {
		w.hidden.ClearHiddenReports()
	}
}
