package chat

import (
	"context"
	"strings"
	"time"

	"care-chat-backend/internal/database"
	"care-chat-backend/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeForbidden  ErrorCode = "forbidden"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Identity is the authenticated caller, as resolved from a verified token.
type Identity struct {
	UserID string
	Role   string
}

// RoomSummary is a room joined with both participants' names and the
// caller's unread count, as the room list renders it.
type RoomSummary struct {
	Room        model.RoomItem
	PatientName string
	DoctorName  string
	UnreadCount int
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo: repo,
		now:  now,
	}
}

// InsertMessage durably stores one message and returns the stored record
// with server-assigned id and timestamp and the sender's name resolved.
// The message starts unread; only a reader flips that, via History.
func (s *Service) InsertMessage(ctx context.Context, roomID, senderID, content string) (model.MessageItem, error) {
	roomID = strings.TrimSpace(roomID)
	content = strings.TrimSpace(content)
	if roomID == "" || senderID == "" || content == "" {
		return model.MessageItem{}, newError(ErrorCodeValidation, "room, sender and content are required", nil)
	}

	sender, err := s.repo.GetUser(ctx, senderID)
	if err != nil {
		if err == ErrNotFound {
			return model.MessageItem{}, newError(ErrorCodeNotFound, "sender not found", err)
		}
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to resolve sender", err)
	}

	message := model.MessageItem{
		RoomID:     roomID,
		MessageID:  uuid.NewString(),
		SenderID:   senderID,
		SenderName: sender.FullName,
		Content:    content,
		CreatedAt:  s.now().UTC().Format(time.RFC3339Nano),
		ReadStatus: false,
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to store message", err)
	}

	return message, nil
}

// CreateRoom returns the room pairing the patient and doctor, creating it on
// first use. One room exists per (patient, doctor) pair.
func (s *Service) CreateRoom(ctx context.Context, patientID, doctorID string) (model.RoomItem, error) {
	patientID = strings.TrimSpace(patientID)
	doctorID = strings.TrimSpace(doctorID)
	if patientID == "" || doctorID == "" {
		return model.RoomItem{}, newError(ErrorCodeValidation, "patientId and doctorId are required", nil)
	}

	existing, err := s.repo.GetRoomByPair(ctx, patientID, doctorID)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return model.RoomItem{}, newError(ErrorCodeInternal, "failed to look up room", err)
	}

	room := model.RoomItem{
		RoomID:    uuid.NewString(),
		PairKey:   model.RoomPairKey(patientID, doctorID),
		PatientID: patientID,
		DoctorID:  doctorID,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return model.RoomItem{}, newError(ErrorCodeInternal, "failed to create room", err)
	}

	return room, nil
}

// ListRooms returns the caller's rooms with participant names and the
// caller's unread count per room.
func (s *Service) ListRooms(ctx context.Context, identity Identity) ([]RoomSummary, error) {
	rooms, err := s.repo.ListRoomsByParticipant(ctx, identity.Role, identity.UserID)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list rooms", err)
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := RoomSummary{Room: room}

		if patient, err := s.repo.GetUser(ctx, room.PatientID); err == nil {
			summary.PatientName = patient.FullName
		}
		if doctor, err := s.repo.GetUser(ctx, room.DoctorID); err == nil {
			summary.DoctorName = doctor.FullName
		}

		count, err := s.repo.CountUnread(ctx, room.RoomID, identity.UserID)
		if err != nil {
			return nil, newError(ErrorCodeInternal, "failed to count unread messages", err)
		}
		summary.UnreadCount = count

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// History returns a room's messages oldest first, after checking the caller
// is a participant and marking the other side's messages read.
func (s *Service) History(ctx context.Context, identity Identity, roomID string) ([]model.MessageItem, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if err == ErrNotFound {
			return nil, newError(ErrorCodeForbidden, "access denied", err)
		}
		return nil, newError(ErrorCodeInternal, "failed to look up room", err)
	}

	if room.PatientID != identity.UserID && room.DoctorID != identity.UserID {
		return nil, newError(ErrorCodeForbidden, "access denied", nil)
	}

	if err := s.repo.MarkMessagesRead(ctx, roomID, identity.UserID); err != nil {
		return nil, newError(ErrorCodeInternal, "failed to mark messages read", err)
	}

	messages, err := s.repo.ListMessages(ctx, roomID)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list messages", err)
	}

	return messages, nil
}

// CountUnread reports how many messages in the room the reader has not seen.
func (s *Service) CountUnread(ctx context.Context, roomID, readerID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, roomID, readerID)
	if err != nil {
		return 0, newError(ErrorCodeInternal, "failed to count unread messages", err)
	}
	return count, nil
}
