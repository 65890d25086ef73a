// Package smartlinks serves short attribution links: landing pages, email
// capture and counted redirects.
package smartlinks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/internal/metrics"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/store"
)

var ErrNotFound = errors.New("smartlink not found")

const contactSyncTimeout = 15 * time.Second

// LinkStore is the slice of the content store used by the service.
type LinkStore interface {
	CreateSmartLink(ctx context.Context, l *models.SmartLink) error
	SmartLinkBySlug(ctx context.Context, slug string) (*models.SmartLink, error)
	SmartLinkForVideo(ctx context.Context, videoID uint) (*models.SmartLink, error)
	RecordClick(ctx context.Context, c *models.Click) error
	CreateEmailCapture(ctx context.Context, e *models.EmailCapture) error
}

// ContactSyncer pushes a captured email to a mailing list.
type ContactSyncer interface {
	AddContact(ctx context.Context, email string) error
}

type Service struct {
	Store  LinkStore
	Syncer ContactSyncer
	Log    *logrus.Logger

	suffix func() (string, error)
	wg     sync.WaitGroup
}

// NewService creates a service. syncer may be nil.
func NewService(s LinkStore, syncer ContactSyncer, log *logrus.Logger) *Service {
	return &Service{
		Store:  s,
		Syncer: syncer,
		Log:    log,
		suffix: func() (string, error) { return randomSuffix(slugSuffixLen) },
	}
}

// CreateLink stores a new link with slug "<base>-<5 random chars>", drawing a
// new suffix whenever the slug is already taken.
func (s *Service) CreateLink(ctx context.Context, videoID *uint, targetURL, sourcePlatform string) (*models.SmartLink, error) {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return nil, fmt.Errorf("create smartlink: empty target url")
	}
	base := SlugBase(targetURL)

	var platform *string
	if sourcePlatform != "" {
		platform = &sourcePlatform
	}

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		suffix, err := s.suffix()
		if err != nil {
			return nil, fmt.Errorf("create smartlink: %w", err)
		}
		link := &models.SmartLink{
			VideoID:        videoID,
			Slug:           base + "-" + suffix,
			TargetURL:      targetURL,
			SourcePlatform: platform,
		}
		err = s.Store.CreateSmartLink(ctx, link)
		if err == nil {
			s.Log.WithFields(logrus.Fields{"slug": link.Slug, "target_url": targetURL}).Info("Created smartlink")
			return link, nil
		}
		if !errors.Is(err, store.ErrSlugTaken) {
			return nil, fmt.Errorf("create smartlink: %w", err)
		}
		s.Log.WithFields(logrus.Fields{"slug": link.Slug, "attempt": attempt}).Debug("Slug taken, retrying")
	}
	return nil, fmt.Errorf("create smartlink: %w after %d attempts", store.ErrSlugTaken, maxSlugAttempts)
}

// EnsureForVideo returns the video's existing link or creates one. The bool
// reports whether a link was created.
func (s *Service) EnsureForVideo(ctx context.Context, videoID uint, targetURL, sourcePlatform string) (*models.SmartLink, bool, error) {
	link, err := s.Store.SmartLinkForVideo(ctx, videoID)
	if err == nil {
		return link, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("find smartlink for video %d: %w", videoID, err)
	}
	link, err = s.CreateLink(ctx, &videoID, targetURL, sourcePlatform)
	if err != nil {
		return nil, false, err
	}
	return link, true, nil
}

func (s *Service) Lookup(ctx context.Context, slug string) (*models.SmartLink, error) {
	link, err := s.Store.SmartLinkBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return link, err
}

// CaptureEmail stores email against the link and starts a background
// mailing-list sync. A blank email is a no-op.
func (s *Service) CaptureEmail(ctx context.Context, slug, email string) error {
	// checked before the lookup, so a blank submit on an unknown slug is also a no-op
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	link, err := s.Lookup(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.Store.CreateEmailCapture(ctx, &models.EmailCapture{
		Email:             email,
		SourceSmartLinkID: &link.ID,
	}); err != nil {
		return fmt.Errorf("capture email: %w", err)
	}

	metrics.SmartLinkEvents.WithLabelValues("email").Inc()
	s.Log.WithFields(logrus.Fields{"email": email, "slug": slug}).Info("Captured email")
	s.syncAsync(email)
	return nil
}

// RecordClick stores the click, bumps the counter and returns the target URL.
// When only the write fails the target is still returned with the error.
func (s *Service) RecordClick(ctx context.Context, slug string, meta ClickMeta) (string, error) {
	link, err := s.Lookup(ctx, slug)
	if err != nil {
		return "", err
	}
	if meta.Source == "" {
		meta.Source = SourceUnknown
	}
	if meta.Device == "" {
		meta.Device = DeviceDesktop
	}
	err = s.Store.RecordClick(ctx, &models.Click{
		SmartLinkID: link.ID,
		Source:      meta.Source,
		Device:      meta.Device,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
	})
	if err != nil {
		return link.TargetURL, fmt.Errorf("record click on %s: %w", slug, err)
	}
	metrics.SmartLinkEvents.WithLabelValues("click").Inc()
	return link.TargetURL, nil
}

// Wait blocks until background contact syncs have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) syncAsync(email string) {
	if s.Syncer == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.Log.WithField("panic", r).Error("Contact sync panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), contactSyncTimeout)
		defer cancel()
		if err := s.Syncer.AddContact(ctx, email); err != nil {
			metrics.SmartLinkEvents.WithLabelValues("contact_sync_failed").Inc()
			s.Log.WithError(err).WithField("email", email).Warn("Contact sync failed")
		}
	}()
}
