package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"driftline.app/backend/internal/entity"
	mediaRepo "driftline.app/backend/internal/modules/media/repository"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/storage"
	"github.com/google/uuid"
)

const (
	maxUploadSize = 32 << 20 // 32 MiB
	orphanMaxAge  = 24 * time.Hour
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".m4v": true,
}

type MediaService interface {
	Upload(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*entity.Media, error)
	AttachToPost(ctx context.Context, userID, postID uuid.UUID, mediaIDs []uint) ([]entity.Media, error)
	CleanupOrphans(ctx context.Context) error
}

type mediaService struct {
	repo    mediaRepo.MediaRepository
	storage storage.MediaStorage
}

func NewMediaService(repo mediaRepo.MediaRepository, fileStorage storage.MediaStorage) MediaService {
	return &mediaService{repo: repo, storage: fileStorage}
}

func (s *mediaService) Upload(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*entity.Media, error) {
	if file.Size > maxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", apperror.ErrInvalidInput, maxUploadSize)
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mediaType := entity.MediaTypeImage
	if videoExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		mediaType = entity.MediaTypeVideo
	}

	var url string
	if mediaType == entity.MediaTypeVideo {
		url, err = s.storage.UploadVideo(ctx, f, "posts", file.Filename)
	} else {
		url, err = s.storage.UploadImage(ctx, f, "posts", file.Filename)
	}
	if err != nil {
		return nil, err
	}

	media := &entity.Media{
		UserID: userID,
		Type:   mediaType,
		URL:    url,
	}
	if err := s.repo.Create(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

// AttachToPost binds previously uploaded media to a freshly created post.
// Ids the user does not own, or that are already attached, are silently
// skipped.
func (s *mediaService) AttachToPost(ctx context.Context, userID, postID uuid.UUID, mediaIDs []uint) ([]entity.Media, error) {
	if len(mediaIDs) == 0 {
		return nil, nil
	}

	owned, err := s.repo.FindOwned(ctx, mediaIDs, userID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(owned))
	for i, m := range owned {
		ids[i] = m.ID
		owned[i].PostID = &postID
	}
	if err := s.repo.AttachToPost(ctx, ids, postID); err != nil {
		return nil, err
	}
	return owned, nil
}

// CleanupOrphans removes uploads that never got attached to a post. Runs
// on a ticker from main.
func (s *mediaService) CleanupOrphans(ctx context.Context) error {
	orphans, err := s.repo.FindOrphans(ctx, time.Now().Add(-orphanMaxAge))
	if err != nil {
		return err
	}

	for _, orphan := range orphans {
		if err := s.storage.Delete(ctx, orphan.URL); err != nil {
			log.Printf("failed to delete orphan media %d from storage: %v", orphan.ID, err)
			continue
		}
		if err := s.repo.Delete(ctx, orphan.ID); err != nil {
			// Next run picks it up again.
			log.Printf("failed to delete orphan media %d: %v", orphan.ID, err)
		}
	}
	return nil
}
