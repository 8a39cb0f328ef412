package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisch192/beefactory/internal/domain"
	"github.com/fisch192/beefactory/internal/service"
)

func seedTopic(t *testing.T, env *testEnv, locked bool) *domain.Topic {
	t.Helper()
	now := time.Now()
	topic := &domain.Topic{
		ID:        uuid.New(),
		ChannelID: uuid.New(),
		Title:     "Feeding syrup ratios",
		CreatedBy: uuid.New(),
		Locked:    locked,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.topics.Create(context.Background(), topic))
	return topic
}

func TestSendMessage_TopicNotFound(t *testing.T) {
	env := newTestEnv(relaxedLimits())
	token := signToken(t, uuid.New(), domain.RoleUser, "Marko")

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+uuid.NewString()+"/messages", token, map[string]string{
		"body": "anyone home?",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestSendMessage_LockedTopic(t *testing.T) {
	env := newTestEnv(relaxedLimits())
	topic := seedTopic(t, env, true)
	token := signToken(t, uuid.New(), domain.RoleUser, "Marko")

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", token, map[string]string{
		"body": "late reply",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/topics/"+topic.ID.String()+"/messages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[service.MessagePage](t, rec).Items)
}

func TestSendMessage_Validation(t *testing.T) {
	env := newTestEnv(relaxedLimits())
	topic := seedTopic(t, env, false)
	token := signToken(t, uuid.New(), domain.RoleUser, "Marko")

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", token, map[string]string{
		"body": "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", errorCode(t, rec))

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", token, map[string]string{
		"body":      "photo attached",
		"photo_url": "ftp://hive.example/frame.jpg",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", errorCode(t, rec))
}

func TestSendMessage_RateLimited(t *testing.T) {
	limits := relaxedLimits()
	limits.Messages = 1
	env := newTestEnv(limits)
	topic := seedTopic(t, env, false)
	token := signToken(t, uuid.New(), domain.RoleUser, "Marko")

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", token, map[string]string{
		"body": "first",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", token, map[string]string{
		"body": "second",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
}

func TestListMessages_Pagination(t *testing.T) {
	env := newTestEnv(relaxedLimits())
	topic := seedTopic(t, env, false)
	token := signToken(t, uuid.New(), domain.RoleUser, "Marko")

	bodies := []string{"first", "second", "third"}
	ids := make([]uuid.UUID, 0, len(bodies))
	for _, body := range bodies {
		rec := doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", token, map[string]string{"body": body})
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decodeBody[domain.Message](t, rec).ID)
		time.Sleep(2 * time.Millisecond) // distinct created_at on coarse clocks
	}

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/topics/"+topic.ID.String()+"/messages?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[service.MessagePage](t, rec)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "second", page.Items[0].Body)
	assert.Equal(t, "third", page.Items[1].Body)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, ids[1], *page.NextCursor)

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/topics/"+topic.ID.String()+"/messages?limit=2&cursor="+page.NextCursor.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[service.MessagePage](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "first", page.Items[0].Body)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestListMessages_TopicNotFound(t *testing.T) {
	env := newTestEnv(relaxedLimits())

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/topics/"+uuid.NewString()+"/messages", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestDeleteMessage_Permissions(t *testing.T) {
	env := newTestEnv(relaxedLimits())
	topic := seedTopic(t, env, false)
	author := signToken(t, uuid.New(), domain.RoleUser, "Marko")
	stranger := signToken(t, uuid.New(), domain.RoleUser, "Ivana")

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/topics/"+topic.ID.String()+"/messages", author, map[string]string{
		"body": "to be removed",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decodeBody[domain.Message](t, rec)

	rec = doRequest(t, env.router, http.MethodDelete, "/api/v1/messages/"+msg.ID.String(), stranger, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = doRequest(t, env.router, http.MethodDelete, "/api/v1/messages/"+msg.ID.String(), author, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/topics/"+topic.ID.String()+"/messages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[service.MessagePage](t, rec).Items)

	// Obrisana poruka se ponaša kao da ne postoji
	rec = doRequest(t, env.router, http.MethodDelete, "/api/v1/messages/"+msg.ID.String(), author, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}
