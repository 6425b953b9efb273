package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"care-chat-backend/internal/database"
	"care-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("chat repository: not found")

type Repository interface {
	GetUser(ctx context.Context, userID string) (model.UserItem, error)
	GetRoom(ctx context.Context, roomID string) (model.RoomItem, error)
	GetRoomByPair(ctx context.Context, patientID, doctorID string) (model.RoomItem, error)
	CreateRoom(ctx context.Context, room model.RoomItem) error
	ListRoomsByParticipant(ctx context.Context, role, userID string) ([]model.RoomItem, error)
	CreateMessage(ctx context.Context, message model.MessageItem) error
	ListMessages(ctx context.Context, roomID string) ([]model.MessageItem, error)
	CountUnread(ctx context.Context, roomID, readerID string) (int, error)
	MarkMessagesRead(ctx context.Context, roomID, readerID string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	var user model.UserItem
	err := r.db.Client.GetItem(
		ctx,
		model.UsersTable,
		map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
		&user,
	)
	if err != nil {
		if isNotFound(err) {
			return model.UserItem{}, ErrNotFound
		}
		return model.UserItem{}, err
	}
	return user, nil
}

func (r *DynamoRepository) GetRoom(ctx context.Context, roomID string) (model.RoomItem, error) {
	var room model.RoomItem
	err := r.db.Client.GetItem(
		ctx,
		model.RoomsTable,
		map[string]types.AttributeValue{
			"roomId": &types.AttributeValueMemberS{Value: roomID},
		},
		&room,
	)
	if err != nil {
		if isNotFound(err) {
			return model.RoomItem{}, ErrNotFound
		}
		return model.RoomItem{}, err
	}
	return room, nil
}

func (r *DynamoRepository) GetRoomByPair(ctx context.Context, patientID, doctorID string) (model.RoomItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.RoomsTable,
		aws.String("byPairKey"),
		"pairKey = :pairKey",
		map[string]types.AttributeValue{
			":pairKey": &types.AttributeValueMemberS{Value: model.RoomPairKey(patientID, doctorID)},
		},
		nil,
		nil,
	)
	if err != nil {
		return model.RoomItem{}, err
	}
	if len(items) == 0 {
		return model.RoomItem{}, ErrNotFound
	}

	var room model.RoomItem
	if err := attributevalue.UnmarshalMap(items[0], &room); err != nil {
		return model.RoomItem{}, err
	}
	return room, nil
}

func (r *DynamoRepository) CreateRoom(ctx context.Context, room model.RoomItem) error {
	return r.db.Client.PutItem(ctx, model.RoomsTable, room)
}

func (r *DynamoRepository) ListRoomsByParticipant(ctx context.Context, role, userID string) ([]model.RoomItem, error) {
	indexName := "byPatientId"
	keyField := "patientId"
	if role == model.RoleDoctor {
		indexName = "byDoctorId"
		keyField = "doctorId"
	}

	items, err := r.db.Client.QueryItems(
		ctx,
		model.RoomsTable,
		aws.String(indexName),
		keyField+" = :userId",
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}

	rooms := make([]model.RoomItem, 0, len(items))
	for _, item := range items {
		var room model.RoomItem
		if err := attributevalue.UnmarshalMap(item, &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return parseTime(rooms[i].CreatedAt).Before(parseTime(rooms[j].CreatedAt))
	})

	return rooms, nil
}

func (r *DynamoRepository) CreateMessage(ctx context.Context, message model.MessageItem) error {
	return r.db.Client.PutItem(ctx, model.MessagesTable, message)
}

func (r *DynamoRepository) ListMessages(ctx context.Context, roomID string) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.MessagesTable,
		nil,
		"roomId = :roomId",
		map[string]types.AttributeValue{
			":roomId": &types.AttributeValueMemberS{Value: roomID},
		},
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var message model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	sort.Slice(messages, func(i, j int) bool {
		return parseTime(messages[i].CreatedAt).Before(parseTime(messages[j].CreatedAt))
	})

	return messages, nil
}

func (r *DynamoRepository) CountUnread(ctx context.Context, roomID, readerID string) (int, error) {
	items, err := r.queryUnread(ctx, roomID, readerID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *DynamoRepository) MarkMessagesRead(ctx context.Context, roomID, readerID string) error {
	items, err := r.queryUnread(ctx, roomID, readerID)
	if err != nil {
		return err
	}

	for _, item := range items {
		var message model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &message); err != nil {
			return err
		}

		err := r.db.Client.UpdateItem(
			ctx,
			model.MessagesTable,
			map[string]types.AttributeValue{
				"roomId":    &types.AttributeValueMemberS{Value: message.RoomID},
				"messageId": &types.AttributeValueMemberS{Value: message.MessageID},
			},
			"SET readStatus = :read",
			map[string]types.AttributeValue{
				":read": &types.AttributeValueMemberBOOL{Value: true},
			},
			nil,
			nil,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// queryUnread fetches the room's unread messages sent by anyone other than
// the reader.
func (r *DynamoRepository) queryUnread(ctx context.Context, roomID, readerID string) ([]map[string]types.AttributeValue, error) {
	return r.db.Client.QueryItemsWithFilter(
		ctx,
		model.MessagesTable,
		nil,
		"roomId = :roomId",
		aws.String("readStatus = :read AND senderId <> :reader"),
		map[string]types.AttributeValue{
			":roomId": &types.AttributeValueMemberS{Value: roomID},
			":read":   &types.AttributeValueMemberBOOL{Value: false},
			":reader": &types.AttributeValueMemberS{Value: readerID},
		},
		nil,
	)
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}

func parseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
