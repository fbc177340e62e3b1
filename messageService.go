package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raiyanplanet/Wibloo/models"
	"github.com/raiyanplanet/Wibloo/socialRepo"
)

type messageService struct {
	viewBuilder
	messages socialRepo.MessageRepo
	users    socialRepo.UserRepo
}

func newMessageService(messages socialRepo.MessageRepo, users socialRepo.UserRepo, views viewBuilder) *messageService {
	return &messageService{viewBuilder: views, messages: messages, users: users}
}

// SendMessage stores the message unread. The receiver is not validated;
// a dangling receiver id just produces a conversation nobody opens.
func (s *messageService) SendMessage(ctx context.Context, receiverId, content string) (string, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return "", errUnauthenticated()
	}
	if strings.TrimSpace(content) == "" {
		return "", status.Error(codes.InvalidArgument, "Message content cannot be empty")
	}
	id, err := s.messages.CreateMessage(ctx, models.Message{
		SenderId:   userId,
		ReceiverId: receiverId,
		Content:    content,
	})
	if err != nil {
		return "", mapRepoErr(err, "Message")
	}
	return id, nil
}

// GetMessages returns both directions of the conversation with the
// other user, oldest first, flagged with which side sent each one.
func (s *messageService) GetMessages(ctx context.Context, otherUserId string) ([]models.MessageView, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return []models.MessageView{}, nil
	}
	messages, err := s.messages.MessagesBetween(ctx, userId, otherUserId)
	if err != nil {
		return nil, mapRepoErr(err, "Messages")
	}
	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, models.MessageView{
			Message:           m,
			IsFromCurrentUser: m.SenderId == userId,
		})
	}
	return views, nil
}

type conversationSeed struct {
	otherUserId string
	lastMessage string
	lastTime    time.Time
}

// groupConversations walks messages newest-first and keeps the first
// message seen per counterpart, so each seed carries that counterpart's
// most recent message and the output stays ordered by recency.
func groupConversations(messages []models.Message, userId string) []conversationSeed {
	seen := make(map[string]struct{})
	var seeds []conversationSeed
	for _, m := range messages {
		otherId := m.SenderId
		if m.SenderId == userId {
			otherId = m.ReceiverId
		}
		if _, dup := seen[otherId]; dup {
			continue
		}
		seen[otherId] = struct{}{}
		seeds = append(seeds, conversationSeed{
			otherUserId: otherId,
			lastMessage: m.Content,
			lastTime:    m.CreatedAt,
		})
	}
	return seeds
}

func (s *messageService) GetConversations(ctx context.Context) ([]models.Conversation, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return []models.Conversation{}, nil
	}
	messages, err := s.messages.MessagesInvolving(ctx, userId)
	if err != nil {
		return nil, mapRepoErr(err, "Messages")
	}

	conversations := make([]models.Conversation, 0)
	for _, seed := range groupConversations(messages, userId) {
		other, err := s.users.GetUser(ctx, seed.otherUserId)
		if err != nil {
			// Counterparts that no longer resolve are dropped.
			if errors.Is(err, socialRepo.ErrNotFound) {
				continue
			}
			return nil, mapRepoErr(err, "User")
		}
		conversations = append(conversations, models.Conversation{
			OtherUser:       s.userView(other),
			LastMessage:     seed.lastMessage,
			LastMessageTime: seed.lastTime,
		})
	}
	return conversations, nil
}

// MarkAsRead is restricted to the message's receiver.
func (s *messageService) MarkAsRead(ctx context.Context, messageId string) (bool, error) {
	userId, ok := userIdFromCtx(ctx)
	if !ok {
		return false, errUnauthenticated()
	}
	if err := s.messages.MarkRead(ctx, messageId, userId); err != nil {
		return false, mapRepoErr(err, "Message")
	}
	return true, nil
}
