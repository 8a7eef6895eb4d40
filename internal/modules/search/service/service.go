package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"driftline.app/backend/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

const (
	indexPosts = "posts"
	indexUsers = "users"
)

type SearchService interface {
	IndexPost(post *entity.Post) error
	DeletePost(id string) error
	IndexUser(user *entity.User) error
	SearchPosts(query string, limit int) ([]PostHit, error)
	GenerateSearchToken() (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initIndexes() {
	postFilterable := []any{"author_id", "thread_id", "is_reply"}
	if _, err := s.client.Index(indexPosts).UpdateFilterableAttributes(&postFilterable); err != nil {
		log.Printf("failed to update posts filterable attributes: %v", err)
	}
	postSortable := []string{"created_at"}
	if _, err := s.client.Index(indexPosts).UpdateSortableAttributes(&postSortable); err != nil {
		log.Printf("failed to update posts sortable attributes: %v", err)
	}

	userSortable := []string{"followers_count"}
	if _, err := s.client.Index(indexUsers).UpdateSortableAttributes(&userSortable); err != nil {
		log.Printf("failed to update users sortable attributes: %v", err)
	}
}

func (s *searchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		log.Printf("failed to list meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{indexPosts, indexUsers},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		log.Printf("failed to create meilisearch signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("created meilisearch signing key")
}

// PostHit is the searchable projection of a post.
type PostHit struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	AuthorID  string `json:"author_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	ThreadID  string `json:"thread_id,omitempty"`
	IsReply   bool   `json:"is_reply"`
	CreatedAt int64  `json:"created_at"`
}

type userHit struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	FollowersCount int    `json:"followers_count"`
}

// cleanContent strips any markup and collapses whitespace so the index
// only holds plain searchable text.
func (s *searchService) cleanContent(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexPost(post *entity.Post) error {
	doc := PostHit{
		ID:        post.ID.String(),
		Content:   s.cleanContent(post.Content),
		AuthorID:  post.AuthorID.String(),
		Username:  post.Author.Username,
		AvatarURL: lo.FromPtr(post.Author.AvatarURL),
		IsReply:   post.IsReply,
		CreatedAt: post.CreatedAt.Unix(),
	}
	if post.ThreadID != nil {
		doc.ThreadID = post.ThreadID.String()
	}

	task, err := s.client.Index(indexPosts).AddDocuments([]PostHit{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("indexed post %s, task id: %d", doc.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeletePost(id string) error {
	_, err := s.client.Index(indexPosts).DeleteDocument(id)
	return err
}

func (s *searchService) IndexUser(user *entity.User) error {
	doc := userHit{
		ID:             user.ID.String(),
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		Bio:            s.cleanContent(lo.FromPtr(user.Bio)),
		AvatarURL:      lo.FromPtr(user.AvatarURL),
		FollowersCount: user.FollowersCount,
	}

	_, err := s.client.Index(indexUsers).AddDocuments([]userHit{doc}, strPtr("id"))
	return err
}

func (s *searchService) SearchPosts(query string, limit int) ([]PostHit, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	resp, err := s.client.Index(indexPosts).Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
		Sort:  []string{"created_at:desc"},
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, err
	}
	var hits []PostHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// GenerateSearchToken issues a short-lived tenant token so clients can
// query meilisearch directly without the master key.
func (s *searchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		indexPosts: map[string]any{"filter": nil},
		indexUsers: map[string]any{"filter": nil},
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func strPtr(s string) *string {
	return &s
}
