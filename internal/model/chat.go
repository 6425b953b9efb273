package model

import "fmt"

// RoomPairKey identifies the unique (patient, doctor) pairing a room is
// keyed on. Upserting a room for an existing pair must return the same room.
func RoomPairKey(patientID, doctorID string) string {
	return fmt.Sprintf("%s#%s", patientID, doctorID)
}

type RoomItem struct {
	RoomID    string `dynamodbav:"roomId"`
	PairKey   string `dynamodbav:"pairKey"`
	PatientID string `dynamodbav:"patientId"`
	DoctorID  string `dynamodbav:"doctorId"`
	CreatedAt string `dynamodbav:"createdAt"`
}

type MessageItem struct {
	RoomID     string `dynamodbav:"roomId"`
	MessageID  string `dynamodbav:"messageId"`
	SenderID   string `dynamodbav:"senderId"`
	SenderName string `dynamodbav:"senderName"`
	Content    string `dynamodbav:"content"`
	CreatedAt  string `dynamodbav:"createdAt"`
	ReadStatus bool   `dynamodbav:"readStatus"`
}

type OnboardingStatus string

const (
	OnboardingStatusNew       OnboardingStatus = "new"
	OnboardingStatusDraft     OnboardingStatus = "draft"
	OnboardingStatusSubmitted OnboardingStatus = "submitted"
)

type OnboardingFormItem struct {
	UserID      string                 `dynamodbav:"userId"`
	Data        map[string]interface{} `dynamodbav:"data"`
	CurrentStep int                    `dynamodbav:"currentStep"`
	Status      OnboardingStatus       `dynamodbav:"status"`
	UpdatedAt   string                 `dynamodbav:"updatedAt"`
}
