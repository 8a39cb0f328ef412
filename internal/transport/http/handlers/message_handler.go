package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/fisch192/beefactory/internal/service"
	"github.com/fisch192/beefactory/internal/transport/http/middleware"
	"github.com/fisch192/beefactory/pkg/validator"
)

type MessageHandler struct {
	channelService *service.ChannelService
}

func NewMessageHandler(channelService *service.ChannelService) *MessageHandler {
	return &MessageHandler{channelService: channelService}
}

// Send is the REST fallback path for clients without a live connection. It
// goes through the exact same service call as the WebSocket gateway.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	topicID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid topic ID")
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input.TopicID = topicID

	if errs := validator.ValidateMessage(input.Body, input.PhotoURL); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.channelService.SendMessage(r.Context(), principal.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTopicNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Topic not found")
		case errors.Is(err, service.ErrTopicLocked):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Topic is locked")
		case errors.Is(err, service.ErrRateLimited):
			writeError(w, http.StatusForbidden, "RATE_LIMITED", "Too many messages sent, try again later")
		default:
			log.Printf("ERROR send message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	topicID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid topic ID")
		return
	}

	cursor, limit, ok := parsePageParams(w, r)
	if !ok {
		return
	}

	page, err := h.channelService.GetMessages(r.Context(), topicID, cursor, limit)
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Topic not found")
		} else {
			log.Printf("ERROR list messages: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.channelService.DeleteMessage(r.Context(), principal.ID, principal.Role, messageID); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotAllowed):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the author or moderators can delete messages")
		default:
			log.Printf("ERROR delete message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
