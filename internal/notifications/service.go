package notifications

import (
	"context"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Service fans domain events out into notifications.
type Service struct {
	channels      repositories.ChannelRepository
	subscriptions repositories.SubscriptionRepository
	notifications repositories.NotificationRepository
	log           logrus.FieldLogger
	now           func() time.Time
}

// NewService creates a new notification Service
func NewService(
	channels repositories.ChannelRepository,
	subscriptions repositories.SubscriptionRepository,
	notifications repositories.NotificationRepository,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		channels:      channels,
		subscriptions: subscriptions,
		notifications: notifications,
		log:           log,
		now:           time.Now,
	}
}

func (s *Service) build(typ models.NotificationType, actor *models.Channel, recipientUserIDs []uint, action, target models.Ref) []models.Notification {
	seen := map[uint]bool{actor.UserID: true}
	var out []models.Notification
	now := s.now().UTC()
	for _, uid := range recipientUserIDs {
		if uid == 0 || seen[uid] {
			continue
		}
		seen[uid] = true
		n := models.Notification{
			NotificationType: typ,
			Created:          now,
			Unread:           true,
			ActorID:          actor.ID,
			RecipientID:      uid,
		}
		n.SetAction(action)
		n.SetTarget(target)
		out = append(out, n)
	}
	return out
}

func (s *Service) owner(ctx context.Context, video *models.Video) (*models.Channel, error) {
	if video.Channel.ID == video.ChannelID && video.Channel.UserID != 0 {
		return &video.Channel, nil
	}
	return s.channels.GetChannelByID(ctx, video.ChannelID)
}

// NotifyNewComment tells the video owner about a comment made by author.
func (s *Service) NotifyNewComment(ctx context.Context, author *models.Channel, comment *models.Comment, video *models.Video) (int, error) {
	owner, err := s.owner(ctx, video)
	if err != nil {
		return 0, errors.Wrap(err, "unable to load video owner")
	}
	batch := s.build(models.NotificationNewComment, author, []uint{owner.UserID}, comment.Ref(), video.Ref())
	if err := s.notifications.CreateNotifications(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// NotifyTagged tells every existing channel named in names that author tagged
// them in comment.
func (s *Service) NotifyTagged(ctx context.Context, author *models.Channel, comment *models.Comment, video *models.Video, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	tagged, err := s.channels.GetChannelsByNames(ctx, names)
	if err != nil {
		return 0, err
	}
	recipients := make([]uint, 0, len(tagged))
	for _, ch := range tagged {
		recipients = append(recipients, ch.UserID)
	}
	batch := s.build(models.NotificationTaggedUser, author, recipients, comment.Ref(), video.Ref())
	if err := s.notifications.CreateNotifications(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// NotifySubscribers announces a published video to the subscribers of its
// channel. It runs at most once per video; later calls return 0.
func (s *Service) NotifySubscribers(ctx context.Context, video *models.Video) (int, error) {
	if !video.Published || video.SubsNotified {
		return 0, nil
	}

	owner, err := s.owner(ctx, video)
	if err != nil {
		return 0, errors.Wrap(err, "unable to load video owner")
	}
	subscribers, err := s.subscriptions.GetSubscribers(ctx, owner.ID)
	if err != nil {
		return 0, err
	}
	recipients := make([]uint, 0, len(subscribers))
	for _, ch := range subscribers {
		recipients = append(recipients, ch.UserID)
	}

	batch := s.build(models.NotificationNewVideo, owner, recipients, video.Ref(), owner.Ref())
	flipped, err := s.notifications.AnnounceVideo(ctx, video.ID, batch)
	if err != nil {
		s.log.WithError(err).WithField("watch_id", video.WatchID).Error("subscribers were not notified")
		return 0, err
	}
	if !flipped {
		return 0, nil
	}
	video.SubsNotified = true
	s.log.WithFields(logrus.Fields{"watch_id": video.WatchID, "recipients": len(batch)}).Info("subscribers notified")
	return len(batch), nil
}
