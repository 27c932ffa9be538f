package model

// Party is the read-only profile of a client or consultant.
type Party struct {
	ID        string `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	Name      string `json:"name" bson:"name" gorm:"type:varchar(200);not null"`
	Email     string `json:"email,omitempty" bson:"email" gorm:"type:varchar(320);not null"`
	Role      Role   `json:"role" bson:"role" gorm:"type:varchar(16);not null;index"`
	Specialty string `json:"specialty,omitempty" bson:"specialty,omitempty" gorm:"type:varchar(200)"`
}

func (Party) TableName() string {
	return "users"
}

// ConsultantSummary is the public listing entry for a consultant.
type ConsultantSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
}

func (p *Party) Summary() ConsultantSummary {
	return ConsultantSummary{ID: p.ID, Name: p.Name, Specialty: p.Specialty}
}
