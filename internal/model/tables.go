package model

const (
	UsersTable           = "Users"
	RoomsTable           = "Rooms"
	MessagesTable        = "Messages"
	OnboardingFormsTable = "OnboardingForms"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

type UserItem struct {
	UserID         string `dynamodbav:"userId"`
	Email          string `dynamodbav:"email"`
	FullName       string `dynamodbav:"fullName"`
	Role           string `dynamodbav:"role"`
	Specialization string `dynamodbav:"specialization,omitempty"`
	PasswordHash   string `dynamodbav:"passwordHash"`
	CreatedAt      string `dynamodbav:"createdAt"`
}
