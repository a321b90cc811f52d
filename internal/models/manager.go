package models

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// Manager is a user account that runs a hostel.
type Manager struct {
	ID           string `bson:"_id" json:"id"`
	ManagerCode  string `bson:"managerCode" json:"managerCode"` // MGR0001
	Username     string `bson:"username" json:"username"`
	Email        string `bson:"email" json:"email"`
	PhoneNumber  string `bson:"phoneNumber" json:"phoneNumber"`
	AddressLine  string `bson:"addressLine,omitempty" json:"addressLine,omitempty"`
	District     string `bson:"district,omitempty" json:"district,omitempty"`
	Zipcode      string `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	PasswordHash string `bson:"passwordHash" json:"-"`
	Role         string `bson:"role" json:"role"`
	TelegramID   int64  `bson:"telegramId,omitempty" json:"telegramId,omitempty"`
	HostelID     string `bson:"hostelId,omitempty" json:"hostelId,omitempty"`
	IsDeleted    bool   `bson:"is_deleted" json:"is_deleted"`
	CreatedAt    int64  `bson:"createdAt" json:"createdAt"`
}
