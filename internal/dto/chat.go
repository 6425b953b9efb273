package dto

type CreateRoomRequest struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
}

type RoomResponse struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	DoctorID    string `json:"doctorId"`
	PatientName string `json:"patientName,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
	UnreadCount int    `json:"unreadCount"`
	CreatedAt   string `json:"createdAt"`
}

type MessageResponse struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	ReadStatus bool   `json:"readStatus"`
}
