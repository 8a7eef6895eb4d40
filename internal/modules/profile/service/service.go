package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"driftline.app/backend/internal/entity"
	notifService "driftline.app/backend/internal/modules/notification/service"
	profileDto "driftline.app/backend/internal/modules/profile/dto"
	searchService "driftline.app/backend/internal/modules/search/service"
	userRepo "driftline.app/backend/internal/modules/user/repository"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/storage"
	"github.com/google/uuid"
)

type ProfileService interface {
	GetProfileByUsername(ctx context.Context, username string, viewerID *uuid.UUID) (*profileDto.ProfileResponse, error)
	GetProfileByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput) (*profileDto.ProfileResponse, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file *profileDto.ImageFile) (*profileDto.ProfileResponse, error)
	UploadCover(ctx context.Context, userID uuid.UUID, file *profileDto.ImageFile) (*profileDto.ProfileResponse, error)
	Follow(ctx context.Context, followerID uuid.UUID, username string) error
	Unfollow(ctx context.Context, followerID uuid.UUID, username string) error
}

type profileService struct {
	repo          userRepo.UserRepository
	mediaStorage  storage.MediaStorage
	search        searchService.SearchService
	notifications notifService.NotificationService
}

func NewProfileService(repo userRepo.UserRepository, mediaStorage storage.MediaStorage, search searchService.SearchService, notifications notifService.NotificationService) ProfileService {
	return &profileService{
		repo:          repo,
		mediaStorage:  mediaStorage,
		search:        search,
		notifications: notifications,
	}
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string, viewerID *uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, user, viewerID)
}

func (s *profileService) GetProfileByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, user, viewerID)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", apperror.ErrInvalidInput)
		}
		user.DisplayName = trimmed
	}
	user.Bio = normalizeOptional(input.Bio, user.Bio)
	user.Location = normalizeOptional(input.Location, user.Location)
	user.Website = normalizeOptional(input.Website, user.Website)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.reindex(user)

	return s.buildResponse(ctx, user, &userID)
}

func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, file *profileDto.ImageFile) (*profileDto.ProfileResponse, error) {
	return s.uploadImage(ctx, userID, file, "avatars", func(user *entity.User, url string) *string {
		old := user.AvatarURL
		user.AvatarURL = &url
		return old
	})
}

func (s *profileService) UploadCover(ctx context.Context, userID uuid.UUID, file *profileDto.ImageFile) (*profileDto.ProfileResponse, error) {
	return s.uploadImage(ctx, userID, file, "covers", func(user *entity.User, url string) *string {
		old := user.CoverURL
		user.CoverURL = &url
		return old
	})
}

func (s *profileService) uploadImage(ctx context.Context, userID uuid.UUID, file *profileDto.ImageFile, folder string, apply func(*entity.User, string) *string) (*profileDto.ProfileResponse, error) {
	if file == nil || file.Reader == nil {
		return nil, fmt.Errorf("%w: no image supplied", apperror.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.mediaStorage.UploadImage(ctx, file.Reader, folder, file.FileName)
	if err != nil {
		return nil, err
	}

	oldURL := apply(user, url)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.reindex(user)

	if oldURL != nil && *oldURL != "" {
		go func(u string) {
			if err := s.mediaStorage.Delete(context.Background(), u); err != nil {
				log.Printf("failed to delete replaced image: %v", err)
			}
		}(*oldURL)
	}

	return s.buildResponse(ctx, user, &userID)
}

func (s *profileService) Follow(ctx context.Context, followerID uuid.UUID, username string) error {
	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return fmt.Errorf("%w: you cannot follow yourself", apperror.ErrInvalidInput)
	}

	if err := s.repo.Follow(ctx, followerID, target.ID); err != nil {
		return err
	}

	if s.notifications != nil {
		follower, err := s.repo.FindByID(ctx, followerID)
		if err == nil {
			notif := &entity.Notification{
				UserID:     target.ID,
				ActorID:    followerID,
				EntityID:   followerID,
				EntityType: "user",
				Type:       "follow",
				Message:    fmt.Sprintf("%s started following you", follower.Username),
			}
			if err := s.notifications.CreateNotification(ctx, notif); err != nil {
				log.Printf("failed to create follow notification: %v", err)
			}
		}
	}
	return nil
}

func (s *profileService) Unfollow(ctx context.Context, followerID uuid.UUID, username string) error {
	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.Unfollow(ctx, followerID, target.ID)
}

func (s *profileService) buildResponse(ctx context.Context, user *entity.User, viewerID *uuid.UUID) (*profileDto.ProfileResponse, error) {
	isFollowing := false
	if viewerID != nil && *viewerID != user.ID {
		var err error
		isFollowing, err = s.repo.IsFollowing(ctx, *viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}

	return &profileDto.ProfileResponse{
		ID:             user.ID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		Bio:            user.Bio,
		Location:       user.Location,
		Website:        user.Website,
		AvatarURL:      user.AvatarURL,
		CoverURL:       user.CoverURL,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
		IsFollowing:    isFollowing,
		JoinedAt:       user.CreatedAt,
	}, nil
}

func (s *profileService) reindex(user *entity.User) {
	if s.search == nil {
		return
	}
	go func(u entity.User) {
		if err := s.search.IndexUser(&u); err != nil {
			log.Printf("failed to reindex user %s: %v", u.Username, err)
		}
	}(*user)
}

// normalizeOptional keeps the stored value when the field is absent,
// clears it when an empty string is sent, and trims otherwise.
func normalizeOptional(input *string, current *string) *string {
	if input == nil {
		return current
	}
	trimmed := strings.TrimSpace(*input)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
