package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"care-chat-backend/internal/model"
)

type memoryRepository struct {
	mu       sync.Mutex
	users    map[string]model.UserItem
	rooms    map[string]model.RoomItem
	messages map[string][]model.MessageItem

	failCreateMessage bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:    make(map[string]model.UserItem),
		rooms:    make(map[string]model.RoomItem),
		messages: make(map[string][]model.MessageItem),
	}
}

func (r *memoryRepository) addUser(user model.UserItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
}

func (r *memoryRepository) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return model.UserItem{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) GetRoom(ctx context.Context, roomID string) (model.RoomItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return model.RoomItem{}, ErrNotFound
	}
	return room, nil
}

func (r *memoryRepository) GetRoomByPair(ctx context.Context, patientID, doctorID string) (model.RoomItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pairKey := model.RoomPairKey(patientID, doctorID)
	for _, room := range r.rooms {
		if room.PairKey == pairKey {
			return room, nil
		}
	}
	return model.RoomItem{}, ErrNotFound
}

func (r *memoryRepository) CreateRoom(ctx context.Context, room model.RoomItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.RoomID] = room
	return nil
}

func (r *memoryRepository) ListRoomsByParticipant(ctx context.Context, role, userID string) ([]model.RoomItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rooms []model.RoomItem
	for _, room := range r.rooms {
		if (role == model.RolePatient && room.PatientID == userID) ||
			(role == model.RoleDoctor && room.DoctorID == userID) {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

func (r *memoryRepository) CreateMessage(ctx context.Context, message model.MessageItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateMessage {
		return errors.New("storage unavailable")
	}
	r.messages[message.RoomID] = append(r.messages[message.RoomID], message)
	return nil
}

func (r *memoryRepository) ListMessages(ctx context.Context, roomID string) ([]model.MessageItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MessageItem, len(r.messages[roomID]))
	copy(out, r.messages[roomID])
	return out, nil
}

func (r *memoryRepository) CountUnread(ctx context.Context, roomID, readerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, message := range r.messages[roomID] {
		if !message.ReadStatus && message.SenderID != readerID {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepository) MarkMessagesRead(ctx context.Context, roomID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, message := range r.messages[roomID] {
		if message.SenderID != readerID {
			r.messages[roomID][i].ReadStatus = true
		}
	}
	return nil
}

func fixedTime() time.Time {
	return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
}

func setupChat(t *testing.T) (*Service, *memoryRepository) {
	t.Helper()
	repo := newMemoryRepository()
	repo.addUser(model.UserItem{UserID: "pat-1", FullName: "Pat Patient", Role: model.RolePatient})
	repo.addUser(model.UserItem{UserID: "doc-1", FullName: "Doc Doctor", Role: model.RoleDoctor})
	return NewWithRepository(repo, fixedTime), repo
}

func TestInsertMessage(t *testing.T) {
	service, repo := setupChat(t)
	ctx := context.Background()

	message, err := service.InsertMessage(ctx, "room-1", "pat-1", "  hello  ")
	if err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if message.MessageID == "" {
		t.Fatal("message should receive an id")
	}
	if message.Content != "hello" {
		t.Fatalf("content should be trimmed, got %q", message.Content)
	}
	if message.SenderName != "Pat Patient" {
		t.Fatalf("sender name should be resolved, got %q", message.SenderName)
	}
	if message.CreatedAt != fixedTime().Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp %q", message.CreatedAt)
	}
	if message.ReadStatus {
		t.Fatal("new message must start unread")
	}

	stored, _ := repo.ListMessages(ctx, "room-1")
	if len(stored) != 1 || stored[0].MessageID != message.MessageID {
		t.Fatalf("message not stored: %v", stored)
	}
}

func TestInsertMessageValidation(t *testing.T) {
	service, _ := setupChat(t)
	ctx := context.Background()

	cases := []struct {
		name             string
		roomID, senderID string
		content          string
		code             ErrorCode
	}{
		{"empty content", "room-1", "pat-1", "   ", ErrorCodeValidation},
		{"empty room", "", "pat-1", "hi", ErrorCodeValidation},
		{"unknown sender", "room-1", "ghost", "hi", ErrorCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.InsertMessage(ctx, tc.roomID, tc.senderID, tc.content)
			var serviceErr *Error
			if !errors.As(err, &serviceErr) {
				t.Fatalf("expected service error, got %v", err)
			}
			if serviceErr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, serviceErr.Code)
			}
		})
	}
}

func TestInsertMessageStorageFailure(t *testing.T) {
	service, repo := setupChat(t)
	repo.failCreateMessage = true

	_, err := service.InsertMessage(context.Background(), "room-1", "pat-1", "hello")
	var serviceErr *Error
	if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestCreateRoomIsIdempotentPerPair(t *testing.T) {
	service, _ := setupChat(t)
	ctx := context.Background()

	first, err := service.CreateRoom(ctx, "pat-1", "doc-1")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if first.PairKey != model.RoomPairKey("pat-1", "doc-1") {
		t.Fatalf("unexpected pair key %q", first.PairKey)
	}

	second, err := service.CreateRoom(ctx, "pat-1", "doc-1")
	if err != nil {
		t.Fatalf("create room again: %v", err)
	}
	if second.RoomID != first.RoomID {
		t.Fatal("same pair should resolve to the same room")
	}

	other, err := service.CreateRoom(ctx, "pat-1", "doc-2")
	if err != nil {
		t.Fatalf("create room for other doctor: %v", err)
	}
	if other.RoomID == first.RoomID {
		t.Fatal("different pair should get its own room")
	}
}

func TestListRooms(t *testing.T) {
	service, _ := setupChat(t)
	ctx := context.Background()

	room, err := service.CreateRoom(ctx, "pat-1", "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.InsertMessage(ctx, room.RoomID, "doc-1", "please check in"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.InsertMessage(ctx, room.RoomID, "doc-1", "are you there?"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.InsertMessage(ctx, room.RoomID, "pat-1", "on my way"); err != nil {
		t.Fatal(err)
	}

	summaries, err := service.ListRooms(ctx, Identity{UserID: "pat-1", Role: model.RolePatient})
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one room, got %d", len(summaries))
	}
	summary := summaries[0]
	if summary.PatientName != "Pat Patient" || summary.DoctorName != "Doc Doctor" {
		t.Fatalf("unexpected names %+v", summary)
	}
	// Only the doctor's messages count against the patient.
	if summary.UnreadCount != 2 {
		t.Fatalf("expected 2 unread, got %d", summary.UnreadCount)
	}

	summaries, err = service.ListRooms(ctx, Identity{UserID: "doc-1", Role: model.RoleDoctor})
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].UnreadCount != 1 {
		t.Fatalf("expected 1 unread for doctor, got %d", summaries[0].UnreadCount)
	}

	summaries, err = service.ListRooms(ctx, Identity{UserID: "doc-2", Role: model.RoleDoctor})
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no rooms for uninvolved doctor, got %d", len(summaries))
	}
}

func TestHistoryMarksRead(t *testing.T) {
	service, _ := setupChat(t)
	ctx := context.Background()

	room, err := service.CreateRoom(ctx, "pat-1", "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.InsertMessage(ctx, room.RoomID, "doc-1", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := service.InsertMessage(ctx, room.RoomID, "pat-1", "second"); err != nil {
		t.Fatal(err)
	}

	patient := Identity{UserID: "pat-1", Role: model.RolePatient}
	messages, err := service.History(ctx, patient, room.RoomID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "first" || messages[1].Content != "second" {
		t.Fatalf("messages out of order: %v", messages)
	}

	count, err := service.CountUnread(ctx, room.RoomID, "pat-1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("history should clear the reader's unread count, got %d", count)
	}

	// The patient's own message stays unread for the doctor.
	count, err = service.CountUnread(ctx, room.RoomID, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread for doctor, got %d", count)
	}
}

func TestHistoryDeniesNonParticipant(t *testing.T) {
	service, _ := setupChat(t)
	ctx := context.Background()

	room, err := service.CreateRoom(ctx, "pat-1", "doc-1")
	if err != nil {
		t.Fatal(err)
	}

	for _, identity := range []Identity{
		{UserID: "doc-2", Role: model.RoleDoctor},
		{UserID: "pat-1", Role: model.RolePatient},
	} {
		roomID := room.RoomID
		if identity.UserID == "pat-1" {
			roomID = "no-such-room"
		}
		_, err := service.History(ctx, identity, roomID)
		var serviceErr *Error
		if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeForbidden {
			t.Fatalf("expected forbidden for %s, got %v", identity.UserID, err)
		}
	}
}
