package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// MirrorSink copies the flattened attribute set into a secondary store keyed
// by profile id, renaming the frs_ prefix to the mirror's own prefix.
type MirrorSink struct {
	writer ports.MirrorWriter
	prefix string
}

func NewMirrorSink(writer ports.MirrorWriter, prefix string) *MirrorSink {
	return &MirrorSink{writer: writer, prefix: prefix}
}

func (s *MirrorSink) Name() string { return domain.SinkMetaMirror }

func (s *MirrorSink) OnProfileSaved(ctx context.Context, p *domain.Profile) error {
	attrs := domain.Flatten(p)
	fields := make(map[string]string, len(attrs)+4)
	for k, v := range attrs {
		fields[s.prefix+strings.TrimPrefix(k, domain.MetaPrefix)] = v
	}
	fields[s.prefix+"email"] = p.Email
	fields[s.prefix+"display_name"] = p.DisplayName
	fields[s.prefix+"slug"] = p.PublicSlug()
	fields[s.prefix+"full_name"] = p.FullName()

	if err := s.writer.Mirror(ctx, p.ID, fields); err != nil {
		return fmt.Errorf("mirror profile: %w", err)
	}
	return nil
}

func (s *MirrorSink) OnProfileDeleted(ctx context.Context, profileID string) error {
	if err := s.writer.Remove(ctx, profileID); err != nil {
		return fmt.Errorf("remove mirror: %w", err)
	}
	return nil
}
