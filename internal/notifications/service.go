package notifications

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/pagination"
)

// Service defines operator notice list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, noticeID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type service struct {
	inbox *Inbox
}

// ListParams configures pagination for notices.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notices and the cursor for the next page.
type ListResult struct {
	Items  []Notice `json:"items"`
	Cursor string   `json:"cursor"`
	Unread int      `json:"unread"`
}

// NewService wires notices dependencies.
func NewService(inbox *Inbox) (Service, error) {
	if inbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notice inbox required")
	}
	return &service{inbox: inbox}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNoticesParams{
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next := s.inbox.list(query)
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
		Unread: s.inbox.UnreadCount(),
	}, nil
}

func (s *service) MarkRead(ctx context.Context, noticeID uuid.UUID) error {
	if noticeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notice id required")
	}
	if !s.inbox.markRead(noticeID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notice not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	return s.inbox.markAllRead(), nil
}
