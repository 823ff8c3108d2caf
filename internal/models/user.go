package models

type User struct {
	BaseModel
	GoogleID *string `gorm:"uniqueIndex" json:"google_id"`
	Email    string  `gorm:"uniqueIndex;not null" json:"email"`
	Name     string  `json:"name"`
	Picture  string  `json:"picture"`

	// Relations
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"-"`
}
