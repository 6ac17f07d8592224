package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is stored in Mongo (bson tags) or Postgres (gorm tags) depending on USER_STORE.
type User struct {
	ID        string    `json:"id" bson:"_id" gorm:"type:varchar(36);primaryKey"`
	Username  string    `json:"username" bson:"username" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" bson:"password" gorm:"not null"`
	Role      string    `json:"role" bson:"role" gorm:"type:varchar(50);default:'user'"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at" gorm:"autoUpdateTime"`
}
