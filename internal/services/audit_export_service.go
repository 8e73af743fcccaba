package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"livepoll/internal/domain/vote"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore is the part of the S3 client the export needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

type AuditExportService struct {
	history *HistoryService
	objects ObjectStore
	logger  *logger.Logger
	now     func() time.Time
}

// NewAuditExportService builds the exporter. With a nil objects store every
// export fails with ErrServiceUnavailable.
func NewAuditExportService(history *HistoryService, objects ObjectStore, l *logger.Logger) *AuditExportService {
	return &AuditExportService{history: history, objects: objects, logger: orNop(l), now: time.Now}
}

type AuditRecord struct {
	VoteID     uuid.UUID  `json:"vote_id"`
	OptionID   uuid.UUID  `json:"option_id"`
	Address    string     `json:"voter_address"`
	CastAt     time.Time  `json:"cast_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	Active     bool       `json:"is_active"`
}

type AuditArchive struct {
	PollID     uuid.UUID     `json:"poll_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Votes      []AuditRecord `json:"votes"`
}

type ExportResult struct {
	Key         string `json:"key"`
	Votes       int    `json:"votes"`
	DownloadURL string `json:"download_url,omitempty"`
}

func (s *AuditExportService) Export(ctx context.Context, pollID uuid.UUID) (ExportResult, error) {
	if s.objects == nil {
		return ExportResult{}, livepoll_errors.ErrServiceUnavailable
	}
	items, err := s.history.List(ctx, pollID)
	if err != nil {
		return ExportResult{}, err
	}

	archive := BuildAuditArchive(pollID, items, s.now().UTC())
	body, err := json.Marshal(archive)
	if err != nil {
		return ExportResult{}, err
	}
	key := AuditObjectKey(pollID, archive.ExportedAt)
	if err := s.objects.PutObject(ctx, key, "application/json", body); err != nil {
		s.logger.Error(ctx, "audit_export_failed", zap.String("poll_id", pollID.String()), zap.Error(err))
		return ExportResult{}, fmt.Errorf("%w: %w", livepoll_errors.ErrServiceUnavailable, err)
	}

	res := ExportResult{Key: key, Votes: len(archive.Votes)}
	if url, err := s.objects.PresignGet(ctx, key); err == nil {
		res.DownloadURL = url
	}
	s.logger.Info(ctx, "audit_exported", zap.String("poll_id", pollID.String()), zap.String("key", key), zap.Int("votes", res.Votes))
	return res, nil
}

func BuildAuditArchive(pollID uuid.UUID, items []vote.Vote, exportedAt time.Time) AuditArchive {
	records := make([]AuditRecord, 0, len(items))
	for _, v := range items {
		rec := AuditRecord{
			VoteID:   v.ID,
			OptionID: v.OptionID,
			Address:  v.Address,
			CastAt:   v.CastAt,
			Active:   v.IsActive(),
		}
		if at, ok := v.ReleasedAt(); ok {
			rec.ReleasedAt = &at
		}
		records = append(records, rec)
	}
	return AuditArchive{PollID: pollID, ExportedAt: exportedAt, Votes: records}
}

func AuditObjectKey(pollID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("audit/polls/%s/%s.json", pollID, at.UTC().Format("20060102T150405Z"))
}
