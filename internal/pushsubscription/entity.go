package pushsubscription

import "time"

// Subscription is a browser push endpoint registered by a user.
type Subscription struct {
	ID        string    `yaml:"id" json:"id" bson:"_id"`
	UserID    string    `yaml:"user_id" json:"user_id" bson:"user_id"`
	Endpoint  string    `yaml:"endpoint" json:"endpoint" bson:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key" json:"p256dh_key" bson:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key" json:"auth_key" bson:"auth_key"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at" bson:"created_at"`
}
